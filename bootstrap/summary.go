package bootstrap

import (
	"fmt"
	"io"
	"time"

	"github.com/kbukum/lifescope/di"
	"github.com/kbukum/lifescope/installer"
	"github.com/kbukum/lifescope/root"
)

// Summary prints what the application composed during startup.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	out             io.Writer
}

// NewSummary creates a summary that writes to out.
func NewSummary(serviceName, version string, out io.Writer) *Summary {
	return &Summary{
		serviceName: serviceName,
		version:     version,
		out:         out,
	}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// DisplaySummary prints installers and the registrations of the live scopes
// of r, with lifetimes and whether each singleton is materialized.
func (s *Summary) DisplaySummary(r *root.Root, installers *installer.Registry) {
	if s.out == nil {
		return
	}
	w := s.out

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "🚀 %s v%s started in %.2fs\n\n",
		s.serviceName, s.version, s.startupDuration.Seconds())

	if installers != nil {
		all := installers.All()
		fmt.Fprintf(w, "🧩 Installers (%d)\n", len(all))
		if len(all) == 0 {
			fmt.Fprintf(w, "   └── No installers registered\n")
		}
		for i, in := range all {
			line := fmt.Sprintf("%s [%s]", in.Name(), in.Target())
			if d, ok := in.(installer.Describable); ok && d.Describe() != "" {
				line += " " + d.Describe()
			}
			fmt.Fprintf(w, "   %s %s\n", treePrefix(i, len(all)), line)
		}
		fmt.Fprintf(w, "\n")
	}

	if r != nil {
		s.displayScope(w, "📦", r.Global())
		s.displayScope(w, "🔁", r.Session())
		fmt.Fprintf(w, "State: %s\n", r.State())
	}
	fmt.Fprintf(w, "\n")
}

func (s *Summary) displayScope(w io.Writer, icon string, scope *di.Scope) {
	if scope == nil {
		return
	}
	regs := scope.Registrations()
	fmt.Fprintf(w, "%s Scope %s (%d registrations)\n", icon, scope.Name(), len(regs))
	if len(regs) == 0 {
		fmt.Fprintf(w, "   └── No services registered\n")
	}
	for i, reg := range regs {
		fmt.Fprintf(w, "   %s %s %s (%s)\n",
			treePrefix(i, len(regs)), lifetimeIcon(reg), reg.Key, reg.Lifetime)
	}
	fmt.Fprintf(w, "\n")
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func lifetimeIcon(reg di.RegistrationInfo) string {
	switch reg.Lifetime {
	case di.Instance:
		return "✅"
	case di.LazySingleton:
		if reg.Materialized {
			return "✅"
		}
		return "⚡"
	case di.Transient:
		return "♻️"
	default:
		return "❓"
	}
}
