package script

import _ "embed"

// helperScript is the fixed helper copied into every container next to
// the run script.
//
//go:embed helper.sh
var helperScript []byte
