package buildinfo

// Ces variables sont injectées à la compilation via -ldflags.
// Exemple :
//
//	-X github.com/stoop-politics/stoop/internal/buildinfo.Version=v0.3.0
//	-X github.com/stoop-politics/stoop/internal/buildinfo.Commit=abcdef
//	-X github.com/stoop-politics/stoop/internal/buildinfo.Date=2026-10-19
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Date    string `json:"date,omitempty"`
}

func Current() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}

// String renvoie "version (commit)" pour les logs et la CLI.
func (i Info) String() string {
	if i.Commit == "" {
		return i.Version
	}
	return i.Version + " (" + i.Commit + ")"
}
