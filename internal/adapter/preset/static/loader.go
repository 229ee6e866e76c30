package staticpreset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"npcforge/internal/app/ports"
	"npcforge/internal/domain/spawn"
)

var ErrInvalidPresetPath = errors.New("invalid preset filepath")

// Loader reads spawn presets from a directory of YAML files, one preset per
// file, named <key>.yaml.
type Loader struct {
	Root string
}

func (l Loader) Load(_ context.Context, key string) (spawn.Preset, error) {
	path, err := secureJoin(l.Root, key+".yaml")
	if err != nil {
		return spawn.Preset{}, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return spawn.Preset{}, fmt.Errorf("%w: preset %s", ports.ErrNotFound, key)
		}
		return spawn.Preset{}, err
	}

	var preset spawn.Preset
	if err := yaml.Unmarshal(raw, &preset); err != nil {
		return spawn.Preset{}, fmt.Errorf("parse preset %s: %w", key, err)
	}
	if preset.Key == "" {
		preset.Key = key
	}
	if err := preset.Validate(); err != nil {
		return spawn.Preset{}, fmt.Errorf("preset %s: %w", key, err)
	}
	return preset, nil
}

// SeedAll loads every *.yaml preset under Root and saves it to the
// repository. Called once at startup so worlds can reference file-shipped
// presets by key.
func (l Loader) SeedAll(ctx context.Context, repo ports.SpawnPresetRepository) (int, error) {
	entries, err := os.ReadDir(l.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	seeded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		key := strings.TrimSuffix(entry.Name(), ".yaml")
		preset, err := l.Load(ctx, key)
		if err != nil {
			return seeded, err
		}
		if err := repo.Save(ctx, preset); err != nil {
			return seeded, err
		}
		seeded++
	}
	return seeded, nil
}

func secureJoin(root, rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if rel == "" || rel == ".yaml" {
		return "", ErrInvalidPresetPath
	}
	if filepath.IsAbs(rel) {
		return "", ErrInvalidPresetPath
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	target := filepath.Clean(filepath.Join(rootAbs, rel))
	prefix := rootAbs + string(filepath.Separator)
	if target != rootAbs && !strings.HasPrefix(target, prefix) {
		return "", ErrInvalidPresetPath
	}
	return target, nil
}
