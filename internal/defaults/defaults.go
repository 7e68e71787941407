// Package defaults provides embedded copies of the starter config and
// .env files for the azoai init subcommand.
package defaults

import _ "embed"

//go:embed config.example.yaml
var ConfigYAML []byte

//go:embed dotenv.example
var DotenvExample []byte
