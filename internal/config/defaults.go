package config

const (
	defaultDataDir         = "~/.local/share/lichtwerk"
	defaultMediaDir        = "~/.local/share/lichtwerk/media"
	defaultLogDir          = "~/.local/share/lichtwerk/logs"
	defaultAPIBind         = "127.0.0.1:7610"
	defaultBracketWindowMS = 2000
	defaultMaxBatchFiles   = 500
	defaultMaxFileMiB      = 512
	defaultCurrency        = "EUR"
	defaultBackendMode     = BackendSQLite
	defaultBackendURL      = "http://127.0.0.1:7610"
	defaultBackendTimeout  = 120
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Backend modes.
const (
	BackendSQLite = "sqlite"
	BackendHTTP   = "http"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			MediaDir: defaultMediaDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Grouping: Grouping{
			BracketWindowMS: defaultBracketWindowMS,
		},
		Ingest: Ingest{
			MaxBatchFiles: defaultMaxBatchFiles,
			MaxFileMiB:    defaultMaxFileMiB,
		},
		Directives: Directives{
			Currency: defaultCurrency,
		},
		Backend: Backend{
			Mode:           defaultBackendMode,
			URL:            defaultBackendURL,
			TimeoutSeconds: defaultBackendTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
