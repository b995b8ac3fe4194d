package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aliexpressru/gomemcached-text/memcached"
)

var (
	getCmd = &cobra.Command{
		Use:   "get [key]...",
		Short: "Reads the values of keys as text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				v, found, err := mcl.Get(args[0], memcached.AsString())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "key=%s, found=%v, value=%v\n", args[0], found, v)
				return nil
			}

			values, err := mcl.GetMultiArray(args, memcached.AsString())
			if err != nil {
				return err
			}
			for i, key := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "key=%s, found=%v, value=%v\n", key, values[i] != nil, values[i])
			}
			return nil
		},
	}

	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Stores a text value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := parseStoreMode(viper.GetString("mode"))
			if err != nil {
				return err
			}
			stored, err := mcl.Store(mode, args[0], seconds(viper.GetDuration("exp")), args[1], memcached.AsString())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: stored=%v\n", mode, args[0], stored)
			return nil
		},
	}

	deleteCmd = &cobra.Command{
		Use:   "delete [key]",
		Short: "Deletes a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := mcl.Delete(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "delete %s: deleted=%v\n", args[0], deleted)
			return nil
		},
	}

	incrCmd = &cobra.Command{
		Use:   "incr [key] [delta]",
		Short: "Increments a counter",
		Args:  cobra.ExactArgs(2),
		RunE:  deltaRunE(memcached.Increment),
	}

	decrCmd = &cobra.Command{
		Use:   "decr [key] [delta]",
		Short: "Decrements a counter, it never goes below zero",
		Args:  cobra.ExactArgs(2),
		RunE:  deltaRunE(memcached.Decrement),
	}

	flushCmd = &cobra.Command{
		Use:   "flush [server]...",
		Short: "Invalidates all items, on all servers when none is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := mcl.FlushAllWithDelay(seconds(viper.GetDuration("delay")), args...)
			fmt.Fprintf(cmd.OutOrStdout(), "flush: ok=%v\n", ok)
			return err
		},
	}

	statsCmd = &cobra.Command{
		Use:   "stats [server]...",
		Short: "Prints server statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				stats map[string]map[string]string
				err   error
			)
			switch kind := viper.GetString("kind"); kind {
			case "", "general":
				stats, err = mcl.Stats(args...)
			case "items":
				stats, err = mcl.StatsItems(args...)
			case "slabs":
				stats, err = mcl.StatsSlabs(args...)
			default:
				return fmt.Errorf("unknown stats kind %q", kind)
			}
			printStats(cmd, stats)
			return err
		},
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Prints which servers are used for routing",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			status := mcl.Registry().Status()
			for _, srv := range mcl.Servers() {
				state := "up"
				if !status[srv] {
					state = "down"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", srv, state)
			}
		},
	}
)

func init() {
	setCmd.Flags().String("mode", "set", "store mode: set, add or replace")
	setCmd.Flags().Duration("exp", 0, "expiration, 0 means never")
	flushCmd.Flags().Duration("delay", 0, "delay of the invalidation")
	statsCmd.Flags().String("kind", "general", "statistics kind: general, items or slabs")
}

func deltaRunE(mode memcached.DeltaMode) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		delta, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("delta must be a number: %w", err)
		}
		n, err := mcl.Delta(mode, args[0], delta)
		if err != nil {
			return err
		}
		if n < 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: not found\n", mode, args[0])
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d\n", mode, args[0], n)
		return nil
	}
}

func parseStoreMode(s string) (memcached.StoreMode, error) {
	switch strings.ToLower(s) {
	case "", "set":
		return memcached.Set, nil
	case "add":
		return memcached.Add, nil
	case "replace":
		return memcached.Replace, nil
	default:
		return 0, fmt.Errorf("unknown store mode %q", s)
	}
}
