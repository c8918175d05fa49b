package domain

// SignatureAlgorithm names the function used to fingerprint files.
type SignatureAlgorithm string

const (
	// SignatureXXHash hashes file content with xxhash64.
	SignatureXXHash SignatureAlgorithm = "xxhash"
	// SignatureBlake3 hashes file content with BLAKE3-256.
	SignatureBlake3 SignatureAlgorithm = "blake3"
	// SignatureStat uses size and modification time only.
	SignatureStat SignatureAlgorithm = "stat"
)

// Toolchain names the external tools and global flags used by actions.
type Toolchain struct {
	CC                string
	CXX               string
	AR                string
	Bison             string
	Flex              string
	Interrogate       string
	InterrogateModule string
	CFlags            []string
	LDFlags           []string
	ScanIncludes      bool
}

// DefaultToolchain returns the tools found on a typical Unix system.
func DefaultToolchain() Toolchain {
	return Toolchain{
		CC:                "cc",
		CXX:               "c++",
		AR:                "ar",
		Bison:             "bison",
		Flex:              "flex",
		Interrogate:       "interrogate",
		InterrogateModule: "interrogate_module",
	}
}

// Project is a loaded Bakefile: settings plus the build context holding the frozen graph.
type Project struct {
	// Path is the Bakefile the project was loaded from.
	Path       string
	Jobs       int
	StorePath  string
	Signatures SignatureAlgorithm
	Context    *BuildContext
}

// Root returns the project root directory.
func (p *Project) Root() string {
	return p.Context.Root
}
