package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "client":
		return clientTemplate, nil
	case "server":
		return serverTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const clientTemplate = `transport = "http"
base_url = "http://127.0.0.1:7420"
frame_address = "127.0.0.1:7421"
timeout = "10s"
poll_interval = "2s"
# credential_file = "~/.config/ipcwire/credential"

security_mode = "development"
connect_timeout = "5s"
read_timeout = "15s"
write_timeout = "15s"

[tls]
enabled = false
mutual = false
ca_file = ""
cert_file = ""
key_file = ""
`

const serverTemplate = `name = "ipcd"
http_addr = "127.0.0.1:7420"
frame_addr = "127.0.0.1:7421"
cors_origins = ["http://localhost:3000"]
shutdown_timeout = "5s"

security_mode = "development"
read_timeout = "15s"
write_timeout = "15s"

[tls]
enabled = false
mutual = false
cert_file = ""
key_file = ""
ca_file = ""

[[accounts]]
username = "alice"
password = "alice-password"
user_id = "u-alice"
handles = ["@alice", "@alice-work"]

[[accounts]]
username = "bob"
password = "bob-password"
two_factor_code = "424242"
user_id = "u-bob"
handles = ["@bob"]
`
