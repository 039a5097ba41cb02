package streamdeck

import (
	"encoding/json"
	"flag"
	"fmt"
)

// Args are the command-line arguments the Stream Deck application
// passes when it launches a plugin
type Args struct {
	Port          int
	PluginUUID    string
	RegisterEvent string
	Info          Info
}

// Info describes the host application and attached devices
type Info struct {
	Application struct {
		Language string `json:"language"`
		Platform string `json:"platform"`
		Version  string `json:"version"`
	} `json:"application"`
	Plugin struct {
		UUID    string `json:"uuid"`
		Version string `json:"version"`
	} `json:"plugin"`
	DevicePixelRatio int          `json:"devicePixelRatio"`
	Devices          []DeviceInfo `json:"devices"`
}

// ParseArgs parses "-port 28196 -pluginUUID X -registerEvent registerPlugin -info {...}"
func ParseArgs(name string, argv []string) (Args, error) {
	var args Args
	var info string

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.IntVar(&args.Port, "port", 0, "Stream Deck websocket port")
	fs.StringVar(&args.PluginUUID, "pluginUUID", "", "plugin UUID used to register")
	fs.StringVar(&args.RegisterEvent, "registerEvent", "", "event name used to register")
	fs.StringVar(&info, "info", "", "application and device info JSON")

	if err := fs.Parse(argv); err != nil {
		return args, err
	}

	if args.Port <= 0 || args.Port > 65535 {
		return args, fmt.Errorf("invalid -port: %d", args.Port)
	}
	if args.PluginUUID == "" {
		return args, fmt.Errorf("-pluginUUID is required")
	}
	if args.RegisterEvent == "" {
		return args, fmt.Errorf("-registerEvent is required")
	}

	if info != "" {
		if err := json.Unmarshal([]byte(info), &args.Info); err != nil {
			return args, fmt.Errorf("failed to decode -info: %w", err)
		}
	}

	return args, nil
}
