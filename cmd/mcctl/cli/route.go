package cli

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/exp/maps"

	"github.com/aliexpressru/gomemcached-text/utils"
)

var routeCmd = &cobra.Command{
	Use:   "route [key]...",
	Short: "Prints the server of keys, or the spread of generated keys with --sample",
	RunE: func(cmd *cobra.Command, args []string) error {
		if n := viper.GetInt("sample"); n > 0 {
			args = sampleKeys(viper.GetString("prefix"), n)
		} else {
			for _, key := range args {
				srv, err := mcl.Registry().Route(key, nil)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", key, srv)
			}
		}

		dist, err := distribution(mcl.Registry(), args)
		if err != nil {
			return err
		}
		printDistribution(cmd, dist)
		return nil
	},
}

func init() {
	routeCmd.Flags().Int("sample", 0, "number of generated keys to route")
	routeCmd.Flags().String("prefix", "key:", "prefix of generated keys")
}

type router interface {
	Route(key string, hint *int) (string, error)
}

func sampleKeys(prefix string, n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = prefix + strconv.Itoa(i)
	}
	return keys
}

// distribution counts keys per server.
func distribution(r router, keys []string) (map[string]int, error) {
	dist := make(map[string]int)
	for _, key := range keys {
		srv, err := r.Route(key, nil)
		if err != nil {
			return nil, fmt.Errorf("route %s: %w", key, err)
		}
		dist[srv]++
	}
	return dist, nil
}

func entropy(dist map[string]int) float64 {
	m := make(map[any]int, len(dist))
	for k, v := range dist {
		m[k] = v
	}
	return utils.CalcEntropy(m)
}

func printDistribution(cmd *cobra.Command, dist map[string]int) {
	servers := maps.Keys(dist)
	slices.Sort(servers)

	var total int
	for _, srv := range servers {
		total += dist[srv]
	}
	for _, srv := range servers {
		fmt.Fprintf(cmd.OutOrStdout(), "%-24s %8d %6.2f%%\n", srv, dist[srv], 100*float64(dist[srv])/float64(total))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "entropy %.4f\n", entropy(dist))
}

func printStats(cmd *cobra.Command, stats map[string]map[string]string) {
	servers := maps.Keys(stats)
	slices.Sort(servers)

	for _, srv := range servers {
		fmt.Fprintln(cmd.OutOrStdout(), srv)
		names := maps.Keys(stats[srv])
		slices.Sort(names)
		for _, name := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", name, stats[srv][name])
		}
	}
}
