package config

// Bakefile represents the structure of the Bakefile.yaml build description.
type Bakefile struct {
	Version    string       `yaml:"version"`
	Root       string       `yaml:"root"`
	Jobs       *int         `yaml:"jobs"`
	Store      string       `yaml:"store"`
	Signatures string       `yaml:"signatures"`
	Toolchain  ToolchainDTO `yaml:"toolchain"`
	Targets    []TargetDTO  `yaml:"targets"`
}

// ToolchainDTO overrides the default tools and global flags.
type ToolchainDTO struct {
	CC                string   `yaml:"cc"`
	CXX               string   `yaml:"cxx"`
	AR                string   `yaml:"ar"`
	Bison             string   `yaml:"bison"`
	Flex              string   `yaml:"flex"`
	Interrogate       string   `yaml:"interrogate"`
	InterrogateModule string   `yaml:"interrogate_module"`
	CFlags            []string `yaml:"cflags"`
	LDFlags           []string `yaml:"ldflags"`
	ScanIncludes      bool     `yaml:"scan_includes"`
}

// TargetDTO represents one target declaration. Repeated names merge.
type TargetDTO struct {
	Name      string   `yaml:"name"`
	Inputs    []string `yaml:"inputs"`
	AltInputs []string `yaml:"alt_inputs"`
	DependsOn []string `yaml:"depends_on"`
	Options   []string `yaml:"options"`
	Kind      string   `yaml:"kind"`
}
