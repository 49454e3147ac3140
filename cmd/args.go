package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/gitlab-time-sync/internal/timecalc"
)

// dateArgs is the positional form shared by sync and report:
// "<date>", "from <start>" or "from <start> to <stop>".
type dateArgs struct {
	date    string
	start   string
	stop    string
	between bool
}

func parseDateArgs(args []string) (dateArgs, error) {
	switch {
	case len(args) == 1 && args[0] != "from":
		return dateArgs{date: args[0]}, nil
	case len(args) == 2 && args[0] == "from":
		return dateArgs{start: args[1], between: true}, nil
	case len(args) == 4 && args[0] == "from" && args[2] == "to":
		return dateArgs{start: args[1], stop: args[3], between: true}, nil
	default:
		return dateArgs{}, fmt.Errorf("expected <date> or from <start> [to <stop>], got %q", args)
	}
}

// validDateArgs is a cobra.PositionalArgs for the date forms.
func validDateArgs(cmd *cobra.Command, args []string) error {
	if _, err := parseDateArgs(args); err != nil {
		return usageError{err}
	}
	return nil
}

func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return usageError{err}
	}
	return nil
}

func (d dateArgs) resolve(r *timecalc.Resolver) (timecalc.Range, error) {
	var (
		rng timecalc.Range
		err error
	)
	if d.between {
		rng, err = r.Between(d.start, d.stop)
	} else {
		rng, err = r.Single(d.date)
	}
	if err != nil {
		return rng, usageError{err}
	}
	return rng, nil
}
