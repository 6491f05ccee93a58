package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coumap/store-crawler/internal/geocode"
)

// defaultTestAddresses are known-good addresses in the test region used to
// verify provider credentials end to end.
var defaultTestAddresses = []string{
	"서울 강남구 개포로 310",
	"서울 강남구 논현로 38",
	"서울 강남구 테헤란로 152",
}

// newMapTestCmd creates the 'maptest' subcommand, which resolves a set of
// addresses through the geocoding chain and prints the outcome per address.
func newMapTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "maptest [address ...]",
		Short: "Resolves test addresses through the geocoding providers",
		Long: `Sends each address through the configured geocoding chain and prints
the resolved coordinate or the failure. Without arguments a built-in set of
addresses in the test region is used.`,

		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			addresses := args
			if len(addresses) == 0 {
				addresses = defaultTestAddresses
			}

			var failed int
			for _, addr := range addresses {
				coord, err := appInstance.GetGeocoder().Resolve(cmd.Context(), addr)
				switch {
				case err == nil:
					fmt.Fprintf(cmd.OutOrStdout(), "%s -> %.7f, %.7f\n", addr, coord.Latitude, coord.Longitude)
				case errors.Is(err, geocode.ErrUnresolved):
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "%s -> unresolved\n", addr)
				default:
					return fmt.Errorf("resolve %q: %w", addr, err)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d addresses unresolved", failed, len(addresses))
			}
			return nil
		},
	}
}
