package config

// DefaultFileName is the config file looked up beside the script and in
// the working directory.
const DefaultFileName = "smelt.yaml"

// Config represents a smelt.yaml configuration file.
// All values are optional and act as defaults for CLI flags.
// CLI flags always override config values.
type Config struct {
	// Compiler is the external compiler binary.
	Compiler string `yaml:"compiler"`
	// TargetExt is the extension appended to the script name to form the
	// executable name.
	TargetExt string `yaml:"target_ext"`
	// Verbose echoes the compiler invocation and live output by default.
	Verbose bool `yaml:"verbose"`
	// References are always-on reference flags added to every build.
	References []string `yaml:"references"`
	// Remote is the git remote compared against by `smelt status`.
	Remote string `yaml:"remote"`
}
