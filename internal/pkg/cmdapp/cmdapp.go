package cmdapp

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/heirko/go-contrib/logrusHelper"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFile = ""

	//Config is a viper based application config
	Config = viper.New()
	//Log is the application logger
	Log = logrus.New()
)

// InitApplication binds config file flag and env variables to the command
func InitApplication(rootCommand *cobra.Command) {
	// env TRANSLATOR_URL is found by viper with key translator.url
	Config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Config.AutomaticEnv()
	cobra.OnInitialize(initConfig)
	rootCommand.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is config.yaml)")
}

//AddPortFlag adds --port flag bound to the 'port' config key
func AddPortFlag(rootCommand *cobra.Command, def int) {
	rootCommand.PersistentFlags().Int32P("port", "", int32(def), "Default service port")
	CheckOrPanic(Config.BindPFlag("port", rootCommand.PersistentFlags().Lookup("port")), "can't bind port flag")
}

//SetDefaults sets config defaults, does not override values from file or env
func SetDefaults(defaults map[string]interface{}) {
	for k, v := range defaults {
		Config.SetDefault(k, v)
	}
}

func initConfig() {
	mustRead := false
	if configFile != "" {
		Config.SetConfigFile(configFile)
		mustRead = true
	} else {
		ex, err := os.Executable()
		if err != nil {
			Log.Error("Can't get the app directory:", err)
			panic(1)
		}
		Config.AddConfigPath(filepath.Dir(ex))
		Config.SetConfigName("config")
	}

	if err := Config.ReadInConfig(); err != nil {
		Log.Warn("Can't read config:", err)
		if mustRead {
			Log.Error("Exiting the app")
			panic(1)
		}
	}
	initLog()
	Log.Info("Config loaded from: ", Config.ConfigFileUsed())
}

func initLog() {
	Config.SetDefault("logger", map[string]interface{}{
		"level":                              "info",
		"formatter.name":                     "text",
		"formatter.options.full_timestamp":   true,
		"formatter.options.timestamp_format": "2006-01-02T15:04:05.000",
	})
	c := logrusHelper.UnmarshalConfiguration(loggerConfig())
	if err := logrusHelper.SetConfig(Log, c); err != nil {
		Log.Error("Can't init log ", err)
	}
}

// loggerConfig returns the logger subtree. Sub ignores env variables, so the values
// are taken from Config, e.g. LOGGER_LEVEL overrides logger.level
func loggerConfig() *viper.Viper {
	res := Config.Sub("logger")
	if res == nil {
		res = viper.New()
	}
	for _, k := range res.AllKeys() {
		if v := Config.Get("logger." + k); v != nil {
			res.Set(k, v)
		}
	}
	return res
}

func logPanic() {
	if r := recover(); r != nil {
		Log.Error(r)
		os.Exit(1)
	}
}

//Execute the main command
func Execute(cmd *cobra.Command) {
	defer logPanic()
	if err := cmd.Execute(); err != nil {
		panic(err)
	}
}

//CheckOrPanic panics if err != nil
func CheckOrPanic(err error, msg string) {
	if err != nil {
		if msg == "" {
			panic(err)
		}
		panic(errors.Wrap(err, msg))
	}
}

//LogIf logs error if err != nil
func LogIf(err error) {
	if err != nil {
		Log.Error(err)
	}
}
