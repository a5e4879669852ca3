package manifest

// Manifest is the root object that holds the entire configuration for a Runbox run.
// It's populated by parsing the user's runbox.yaml file.
type Manifest struct {
	APIVersion string   `yaml:"apiVersion" validate:"required"`
	Kind       string   `yaml:"kind" validate:"required,eq=Sandbox"`
	Metadata   Metadata `yaml:"metadata" validate:"required"`
	Spec       Spec     `yaml:"spec" validate:"required"`
}

// Metadata contains run-level metadata.
type Metadata struct {
	Name        string            `yaml:"name" validate:"required"`
	Description string            `yaml:"description"`
	Labels      map[string]string `yaml:"labels,omitempty"`
}

// Spec contains the detailed specifications for the sandbox run.
type Spec struct {
	Container Container `yaml:"container" validate:"required"`
	Run       Run       `yaml:"run" validate:"required"`
}

// Container describes the container the run executes inside.
type Container struct {
	Image       string   `yaml:"image" validate:"required"`
	Env         []string `yaml:"env,omitempty" validate:"dive,required"`
	Interactive bool     `yaml:"interactive"`
	Entrypoint  []string `yaml:"entrypoint,omitempty"`
	Workdir     string   `yaml:"workdir"`
	Name        string   `yaml:"name"`
}

// Run describes what executes inside the container once it is up.
type Run struct {
	Script string   `yaml:"script" validate:"required"`
	Setup  []string `yaml:"setup,omitempty"`
}
