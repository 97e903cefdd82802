package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"okx-grid-bot-go/internal/models"
)

// 默认的死区比例。死区作为配置字段存在，这里只提供按变体区分的缺省值。
const (
	defaultDeadZoneBuffer      = 0.003
	defaultMicroDeadZoneBuffer = 0.001
	defaultTrailingPercent     = 0.1
)

// ErrVersionConflict 表示配置文件在加载后被其他进程修改过，
// 为避免丢失更新而拒绝本次保存。
var ErrVersionConflict = errors.New("settings file was modified by another process")

// AuthSearchPaths 返回凭证文件的候选路径，按优先级排列，取第一个存在的文件。
func AuthSearchPaths() []string {
	paths := []string{
		"okx_config.json",
		filepath.Join("okx_data", "config.json"),
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".okx-grid-bot", "config.json"))
	}
	return paths
}

// SettingsSearchPaths 返回网格参数文件的候选路径，规则同 AuthSearchPaths。
func SettingsSearchPaths() []string {
	paths := []string{
		"grid_settings.json",
		filepath.Join("okx_data", "grid_settings.json"),
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".okx-grid-bot", "grid_settings.json"))
	}
	return paths
}

// resolveFirst 返回候选路径中第一个存在的文件
func resolveFirst(paths []string) (string, error) {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("在候选路径 %v 中未找到配置文件", paths)
}

// LoadCredentials 从候选路径中加载API凭证配置
func LoadCredentials(paths []string) (*models.Credentials, error) {
	path, err := resolveFirst(paths)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	creds := &models.Credentials{}
	if err := json.NewDecoder(file).Decode(creds); err != nil {
		return nil, fmt.Errorf("解析凭证文件 %s 失败: %v", path, err)
	}
	return creds, nil
}

// SettingsFile 将加载到的网格参数与其来源文件绑定在一起。
// rescale 修改边界后通过 Save 回写到同一个文件。
type SettingsFile struct {
	Settings models.Settings
	Path     string

	loadedVersion int // 加载时的版本号，保存时用于乐观并发检查
}

// LoadSettings 从候选路径中加载网格参数文件并补齐各变体的默认值
func LoadSettings(paths []string) (*SettingsFile, error) {
	path, err := resolveFirst(paths)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	f := &SettingsFile{Path: path}
	if err := json.Unmarshal(data, &f.Settings); err != nil {
		return nil, fmt.Errorf("解析网格参数文件 %s 失败: %v", path, err)
	}
	f.loadedVersion = f.Settings.Version

	for name, cfg := range f.Settings.Variants {
		normalize(name, cfg)
	}
	return f, nil
}

// normalize 为单个变体补齐默认值
func normalize(name string, cfg *models.GridConfig) {
	if cfg.TrailingPercent <= 0 {
		cfg.TrailingPercent = defaultTrailingPercent
	}
	if cfg.DeadZoneBuffer <= 0 {
		if name == "micro" {
			cfg.DeadZoneBuffer = defaultMicroDeadZoneBuffer
		} else {
			cfg.DeadZoneBuffer = defaultDeadZoneBuffer
		}
	}
}

// Variant 返回指定变体的网格参数，未配置时返回错误
func (f *SettingsFile) Variant(name string) (*models.GridConfig, error) {
	cfg, ok := f.Settings.Variants[name]
	if !ok || cfg == nil {
		return nil, fmt.Errorf("变体 %s 未在 %s 中配置", name, f.Path)
	}
	return cfg, nil
}

// Save 将当前参数回写到来源文件。
// 保存前重读磁盘上的版本号，若与加载时不一致则返回 ErrVersionConflict，
// 防止同一变体的并发实例互相覆盖边界。
func (f *SettingsFile) Save() error {
	if data, err := os.ReadFile(f.Path); err == nil {
		var onDisk models.Settings
		if json.Unmarshal(data, &onDisk) == nil && onDisk.Version != f.loadedVersion {
			return fmt.Errorf("%w: 磁盘版本 %d, 加载版本 %d", ErrVersionConflict, onDisk.Version, f.loadedVersion)
		}
	}

	f.Settings.Version = f.loadedVersion + 1
	data, err := json.MarshalIndent(&f.Settings, "", "    ")
	if err != nil {
		return fmt.Errorf("无法序列化网格参数: %v", err)
	}
	if err := os.WriteFile(f.Path, data, 0644); err != nil {
		return err
	}
	f.loadedVersion = f.Settings.Version
	return nil
}
