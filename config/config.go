package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/lphedge/internal/domain"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del backtester.
type Config struct {
	Data     DataConfig     `yaml:"data"`
	Position PositionConfig `yaml:"position"`
	Hedge    HedgeConfig    `yaml:"hedge"`
	Sweep    SweepConfig    `yaml:"sweep"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// DataConfig indica de dónde salen los precios y qué ventana usar.
type DataConfig struct {
	File  string `yaml:"file"`  // .csv o .json
	Start string `yaml:"start"` // ISO-8601 o epoch; vacío = desde el principio
	End   string `yaml:"end"`   // vacío = hasta el final
}

// PositionConfig define el rango y el sizing de la posición LP.
type PositionConfig struct {
	Lower         float64 `yaml:"lower"`
	Upper         float64 `yaml:"upper"`
	PrimaryAmount float64 `yaml:"primary_amount"` // activo principal que entra al pool
	P0Mode        string  `yaml:"p0_mode"`        // from_data | fixed
	P0            float64 `yaml:"p0"`             // solo con p0_mode: fixed
}

// HedgeConfig controla la regla de cobertura.
type HedgeConfig struct {
	K0        float64 `yaml:"k0"`
	Threshold float64 `yaml:"threshold"`
}

// SweepConfig define el grid threshold × k0.
type SweepConfig struct {
	Thresholds []float64 `yaml:"thresholds"`
	K0s        []float64 `yaml:"k0s"`
	Top        int       `yaml:"top"`
	Workers    int       `yaml:"workers"`     // 0 = NumCPU × 2
	StoreCells bool      `yaml:"store_cells"` // persistir cada celda como run
}

// FetchConfig controla la descarga de velas.
type FetchConfig struct {
	BaseURL  string `yaml:"base_url"`
	Symbol   string `yaml:"symbol"`
	Interval string `yaml:"interval"`
}

// StorageConfig controla dónde se persisten los runs.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
// Las claves ausentes del YAML conservan el valor por defecto, incluidos ceros
// explícitos como k0: 0.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

// Default devuelve la configuración congelada de referencia (ETH 1h).
func Default() *Config {
	return &Config{
		Data: DataConfig{File: "eth_1h.csv"},
		Position: PositionConfig{
			Lower:         2651,
			Upper:         3498,
			PrimaryAmount: 1.0,
			P0Mode:        string(domain.P0FromData),
			P0:            3150,
		},
		Hedge: HedgeConfig{K0: 0.7, Threshold: 0.05},
		Sweep: SweepConfig{
			Thresholds: []float64{0.03, 0.05, 0.07, 0.10, 0.15},
			K0s:        []float64{0.30, 0.50, 0.70, 0.90},
			Top:        10,
		},
		Fetch: FetchConfig{
			BaseURL:  "https://api.binance.com",
			Symbol:   "ETHUSDT",
			Interval: "1h",
		},
		Storage: StorageConfig{DSN: "lphedge.db"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// BacktestParams convierte la configuración en los parámetros del motor.
func (c *Config) BacktestParams() (domain.BacktestParams, error) {
	start, err := parseBound(c.Data.Start)
	if err != nil {
		return domain.BacktestParams{}, fmt.Errorf("config.BacktestParams: start: %w", err)
	}
	end, err := parseBound(c.Data.End)
	if err != nil {
		return domain.BacktestParams{}, fmt.Errorf("config.BacktestParams: end: %w", err)
	}

	return domain.BacktestParams{
		Lower:         c.Position.Lower,
		Upper:         c.Position.Upper,
		PrimaryAmount: c.Position.PrimaryAmount,
		K0:            c.Hedge.K0,
		Threshold:     c.Hedge.Threshold,
		Start:         start,
		End:           end,
		P0Mode:        domain.P0Mode(strings.ToLower(strings.TrimSpace(c.Position.P0Mode))),
		FixedP0:       c.Position.P0,
	}, nil
}

// parseBound acepta los mismos formatos que los CSV de precios. Vacío = abierto.
func parseBound(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	return domain.ParseTimestamp(raw)
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("LPHEDGE_DATA_FILE"); v != "" {
		cfg.Data.File = v
	}
	if v := os.Getenv("LPHEDGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

// setDefaults rellena lo que el YAML haya dejado vacío explícitamente.
func setDefaults(cfg *Config) {
	def := Default()
	if cfg.Data.File == "" {
		cfg.Data.File = def.Data.File
	}
	if cfg.Position.P0Mode == "" {
		cfg.Position.P0Mode = def.Position.P0Mode
	}
	if len(cfg.Sweep.Thresholds) == 0 {
		cfg.Sweep.Thresholds = def.Sweep.Thresholds
	}
	if len(cfg.Sweep.K0s) == 0 {
		cfg.Sweep.K0s = def.Sweep.K0s
	}
	if cfg.Sweep.Top <= 0 {
		cfg.Sweep.Top = def.Sweep.Top
	}
	if cfg.Fetch.BaseURL == "" {
		cfg.Fetch.BaseURL = def.Fetch.BaseURL
	}
	if cfg.Fetch.Symbol == "" {
		cfg.Fetch.Symbol = def.Fetch.Symbol
	}
	if cfg.Fetch.Interval == "" {
		cfg.Fetch.Interval = def.Fetch.Interval
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = def.Storage.DSN
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
}
