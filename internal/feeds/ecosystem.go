package feeds

// Inventory ecosystems and the names OSV knows them by.
var osvEcosystem = map[string]string{
	"npm":   "npm",
	"pip":   "PyPI",
	"gem":   "RubyGems",
	"go":    "Go",
	"cargo": "crates.io",
	"maven": "Maven",
	"nuget": "NuGet",
}

func toOSVEcosystem(ecosystem string) string {
	if mapped, ok := osvEcosystem[ecosystem]; ok {
		return mapped
	}
	return ecosystem
}
