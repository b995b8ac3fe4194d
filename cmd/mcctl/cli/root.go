// Package cli implements mcctl, a command-line client for a sharded pool of
// text protocol memcached servers.
//
// Every flag can also be set from the environment with the MEMCACHED_ prefix,
// e.g. MEMCACHED_SERVERS=10.0.0.1:11211,10.0.0.2:11211. A .env file in the
// working directory is loaded first.
package cli

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aliexpressru/gomemcached-text/consistenthash"
	"github.com/aliexpressru/gomemcached-text/memcached"
)

var (
	mcl *memcached.Client

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:               "mcctl",
		Short:             "sharded memcached text protocol client",
		SilenceUsage:      true,
		PersistentPreRunE: setupClient,
		PersistentPostRun: func(*cobra.Command, []string) {
			if mcl != nil {
				mcl.Close()
			}
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().String("servers", "localhost:11211", "comma-separated list of memcached servers")
	RootCmd.PersistentFlags().String("headless-service-address", "", "headless service to lookup the memcached ip addresses")
	RootCmd.PersistentFlags().Duration("socket-timeout", memcached.DefaultTimeout, "read/write timeout")
	RootCmd.PersistentFlags().Duration("connect-timeout", memcached.DefaultConnectTimeout, "dial timeout")
	RootCmd.PersistentFlags().String("hashing", string(consistenthash.AlgCompat), "server selection: compat, old_compat, native, xxhash or consistent")
	RootCmd.PersistentFlags().Bool("failover", true, "route keys of a down server to the next live one")
	RootCmd.PersistentFlags().Bool("verbose", false, "print library logs")

	RootCmd.AddCommand(getCmd, setCmd, deleteCmd, incrCmd, decrCmd, flushCmd, statsCmd, statusCmd, routeCmd)
}

// initConfig loads the .env file and binds environment variables.
func initConfig() {
	_ = godotenv.Load(".env")

	viper.SetEnvPrefix("memcached")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func setupClient(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	opts := []memcached.Option{
		memcached.WithTimeout(viper.GetDuration("socket-timeout")),
		memcached.WithConnectTimeout(viper.GetDuration("connect-timeout")),
		memcached.WithHashAlg(consistenthash.HashAlg(viper.GetString("hashing"))),
		memcached.WithFailover(viper.GetBool("failover")),
		memcached.WithDisableNodeProvider(),
		memcached.WithDisableMemcachedDiagnostic(),
	}
	if !viper.GetBool("verbose") {
		opts = append(opts, memcached.WithDisableLogger())
	}
	// route only hashes keys
	if cmd == routeCmd {
		opts = append(opts, memcached.WithInitConns(0))
	}

	var err error
	mcl, err = newClient(viper.GetString("headless-service-address"), viper.GetString("servers"), opts...)
	return err
}

func newClient(headless, servers string, opts ...memcached.Option) (*memcached.Client, error) {
	if headless != "" {
		opts = append(opts, memcached.WithHeadlessServiceAddress(headless))
	}
	return memcached.New(splitServers(servers), opts...)
}

func splitServers(s string) []string {
	var servers []string
	for _, srv := range strings.Split(s, ",") {
		if srv = strings.TrimSpace(srv); srv != "" {
			servers = append(servers, srv)
		}
	}
	return servers
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func seconds(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	return uint32(d / time.Second)
}
