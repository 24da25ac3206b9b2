// Package history tracks the last successful start per tunnel in
// history.json. Display-only data: nothing in the lifecycle reads it back.
package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/treykane/tunnels/internal/config"
	"github.com/treykane/tunnels/internal/model"
)

type store struct {
	LastStarted map[string]int64 `json:"last_started"`
}

func filePath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.json"), nil
}

// Touch records a successful start for a tunnel name.
func Touch(name string) error {
	st, err := load()
	if err != nil {
		return err
	}
	if st.LastStarted == nil {
		st.LastStarted = map[string]int64{}
	}
	st.LastStarted[name] = time.Now().Unix()
	return save(st)
}

// LastStarted returns last successful start timestamps by tunnel name.
func LastStarted() (map[string]int64, error) {
	st, err := load()
	if err != nil {
		return nil, err
	}
	return st.LastStarted, nil
}

// SortTunnelsRecent returns a new slice sorted by recent activity (desc),
// then name.
func SortTunnelsRecent(tunnels []model.Tunnel, lastStarted map[string]int64) []model.Tunnel {
	out := append([]model.Tunnel(nil), tunnels...)
	sort.Slice(out, func(i, j int) bool {
		ti := lastStarted[out[i].Name]
		tj := lastStarted[out[j].Name]
		if ti != tj {
			return ti > tj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func load() (store, error) {
	path, err := filePath()
	if err != nil {
		return store{}, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store{LastStarted: map[string]int64{}}, nil
		}
		return store{}, err
	}
	var st store
	if err := json.Unmarshal(b, &st); err != nil {
		return store{LastStarted: map[string]int64{}}, nil
	}
	if st.LastStarted == nil {
		st.LastStarted = map[string]int64{}
	}
	return st, nil
}

func save(st store) error {
	path, err := filePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}
