// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"bytes"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/scc-digitalhub/fileset-register-sdk/sdk/config"
	"github.com/spf13/viper"
	"gopkg.in/ini.v1"
)

// EnvDumpPrefix: optional prefix for env lookup (FSREG_RDE_ENDPOINT -> RDE_ENDPOINT)
const EnvDumpPrefix = "FSREG"

// Settings holds all logical keys. Tags:
// - vkey: Viper key
// - env: canonical env name (UPPER_SNAKE). If empty, derived from vkey
// - persist: "true" to write the key into the INI
// - default: optional default to set if key is unset
// - secret: "true" if sensitive
// - bind: "false" to NOT bind from env (we still can set defaults)
type Settings struct {
	RdeEndpoint         string `vkey:"rde_endpoint"          env:"RDE_ENDPOINT"          persist:"true"`
	RdeMaterialEndpoint string `vkey:"rde_material_endpoint" env:"RDE_MATERIAL_ENDPOINT" persist:"true"`
	RdeAccessToken      string `vkey:"rde_access_token"      env:"RDE_ACCESS_TOKEN"      persist:"true" secret:"true"`
	RdeTimeout          string `vkey:"rde_timeout"           env:"RDE_TIMEOUT"           persist:"true" default:"120s"`

	StagingBaseDir string `vkey:"staging_base_dir" env:"FSREG_STAGING_DIR"  persist:"true"`
	MetadataDir    string `vkey:"metadata_dir"     env:"FSREG_METADATA_DIR" persist:"true"`
	OutputDir      string `vkey:"output_dir"       env:"FSREG_OUTPUT_DIR"   persist:"true" default:"output"`

	AwsAccessKeyID     string `vkey:"aws_access_key_id"     env:"AWS_ACCESS_KEY_ID"     persist:"true" secret:"true"`
	AwsSecretAccessKey string `vkey:"aws_secret_access_key" env:"AWS_SECRET_ACCESS_KEY" persist:"true" secret:"true"`
	AwsSessionToken    string `vkey:"aws_session_token"     env:"AWS_SESSION_TOKEN"     persist:"true" secret:"true"`
	AwsRegion          string `vkey:"aws_region"            env:"AWS_REGION"            persist:"true" default:"us-east-1"`
	AwsEndpointURL     string `vkey:"aws_endpoint_url"      env:"AWS_ENDPOINT_URL"      persist:"true"`
	S3Bucket           string `vkey:"s3_bucket"             env:"S3_BUCKET"             persist:"true"`
	S3Prefix           string `vkey:"s3_prefix"             env:"S3_PREFIX"             persist:"true" default:"fsreg"`

	IniSource          string `vkey:"ini_source"          env:"INI_SOURCE"          persist:"true"`
	UpdatedEnvironment string `vkey:"updated_environment" env:"UPDATED_ENVIRONMENT" persist:"true" bind:"false"`
	CurrentEnvironment string `vkey:"current_environment" env:"CURRENT_ENVIRONMENT" persist:"false"`
}

type settingField struct {
	key     string
	env     string
	def     string
	persist bool
	bind    bool
}

func settingFields() []settingField {
	rt := reflect.TypeOf(Settings{})
	out := make([]settingField, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		key := f.Tag.Get("vkey")
		if key == "" {
			continue
		}
		env := f.Tag.Get("env")
		if env == "" {
			env = strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		}
		out = append(out, settingField{
			key:     key,
			env:     env,
			def:     f.Tag.Get("default"),
			persist: f.Tag.Get("persist") == "true",
			bind:    !strings.EqualFold(f.Tag.Get("bind"), "false"),
		})
	}
	return out
}

func (f settingField) applyDefault() {
	if f.def != "" && !viper.IsSet(f.key) {
		viper.SetDefault(f.key, f.def)
	}
}

// resolveEnvName: --env > "default"
func resolveEnvName(optionalEnv ...string) string {
	if len(optionalEnv) > 0 && optionalEnv[0] != "" && strings.ToLower(optionalEnv[0]) != "null" {
		return optionalEnv[0]
	}
	return "default"
}

// mirror PREFIX_FOO -> FOO (optional)
func mirrorPrefix(prefix string) {
	if prefix == "" {
		return
	}
	upPrefix := strings.ToUpper(prefix) + "_"
	for _, e := range os.Environ() {
		name, val, ok := strings.Cut(e, "=")
		if !ok || !strings.HasPrefix(name, upPrefix) {
			continue
		}
		unpref := strings.TrimPrefix(name, upPrefix)
		if os.Getenv(unpref) == "" {
			_ = os.Setenv(unpref, val)
		}
	}
}

// BindEnvFromStruct binds env for all fields of Settings using struct tags.
func BindEnvFromStruct(prefix string) {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	mirrorPrefix(prefix)

	for _, f := range settingFields() {
		if f.bind {
			_ = viper.BindEnv(f.key, f.env)
		}
		f.applyDefault()
	}
}

func writePersisted(sec *ini.Section) {
	for _, f := range settingFields() {
		if !f.persist {
			continue
		}
		if val := viper.GetString(f.key); val != "" {
			sec.Key(f.key).SetValue(val)
		}
	}
}

// WriteIniFromStruct writes a new INI with only fields marked persist:"true".
func WriteIniFromStruct(iniPath, envName string) error {
	cfg := ini.Empty()
	cfg.Section("DEFAULT").Key(CurrentEnvironment).SetValue(envName)
	writePersisted(cfg.Section(envName))
	return cfg.SaveTo(iniPath)
}

// UpdateIniFromStruct updates or creates an INI section from current Viper values.
func UpdateIniFromStruct(iniPath, envName string) error {
	cfg, err := ini.Load(iniPath)
	if err != nil {
		return WriteIniFromStruct(iniPath, envName)
	}
	sec := cfg.Section(envName)
	writePersisted(sec)

	if !cfg.Section("DEFAULT").HasKey(CurrentEnvironment) {
		cfg.Section("DEFAULT").Key(CurrentEnvironment).SetValue(envName)
	}
	sec.Key(UpdatedEnvKey).SetValue(time.Now().UTC().Format(time.RFC3339))
	return cfg.SaveTo(iniPath)
}

// Load [DEFAULT] + [env] into Viper (TOML in-memory). ENV can still override on Get().
func loadIniSectionIntoViper(cfg *ini.File, env string) error {
	def := cfg.Section("DEFAULT")
	selected := def
	if env != "" && cfg.HasSection(env) {
		selected = cfg.Section(env)
		Debugf("using env: [%s]", env)
	} else if env == "" || strings.EqualFold(env, "DEFAULT") {
		Debugf("using env: [DEFAULT]")
	} else {
		Warnf("env %q not found, falling back to [DEFAULT]", env)
	}

	merged := make(map[string]string)
	for _, k := range def.Keys() {
		merged[k.Name()] = k.Value()
	}
	if selected != def {
		for _, k := range selected.Keys() {
			merged[k.Name()] = k.Value()
		}
	}

	var buf bytes.Buffer
	for k, v := range merged {
		vSafe := strings.ReplaceAll(strings.ReplaceAll(v, `\`, `\\`), `"`, `\"`)
		_, _ = fmt.Fprintf(&buf, "%s = \"%s\"\n", k, vSafe)
	}
	viper.SetConfigType("toml")
	return viper.ReadConfig(&buf)
}

// RegisterIniCfgWithViper:
// 1) bind ENV from struct (live)
// 2) load INI or bootstrap it from env (writes only target env)
// 3) load active section into Viper and set current_environment
func RegisterIniCfgWithViper(optionalEnv ...string) error {
	iniPath := getIniPath()

	BindEnvFromStruct(EnvDumpPrefix)

	cfg, err := ini.Load(iniPath)
	if err != nil {
		Infof("INI not found; reading settings from env variables")
		envName, bootErr := bootstrapFromEnv(iniPath, optionalEnv...)
		if bootErr != nil {
			Warnf("bootstrap failed: %v", bootErr)
			if envName == "" {
				envName = resolveEnvName(optionalEnv...)
			}
			viper.Set(CurrentEnvironment, envName)
			return nil
		}
		cfg, err = ini.Load(iniPath)
		if err != nil {
			Warnf("INI written but cannot reload: %v (env-only mode)", err)
			return nil
		}
	}

	// active env: --env > DEFAULT.current_environment > default
	env := resolveEnvName(optionalEnv...)
	if env == "default" {
		if v := cfg.Section("DEFAULT").Key(CurrentEnvironment).String(); v != "" {
			env = v
		}
	}

	if err := loadIniSectionIntoViper(cfg, env); err != nil {
		return fmt.Errorf("failed to load INI into viper: %w", err)
	}
	viper.Set(CurrentEnvironment, env)
	return nil
}

// bootstrapFromEnv runs when the INI is missing: read all variables from OS envs using Settings.
// - honors `bind:"false"` (skip ENV read for that key)
// - applies `default:"..."` only if key is unset
func bootstrapFromEnv(iniPath string, optionalEnv ...string) (string, error) {
	for _, f := range settingFields() {
		if f.bind {
			if val, ok := os.LookupEnv(f.env); ok {
				viper.Set(f.key, val)
				continue
			}
		}
		f.applyDefault()
	}

	if viper.GetString(RdeEndpoint) == "" {
		return "", fmt.Errorf("missing %s: set it in env or in %s", RdeEndpoint, IniName)
	}

	envName := resolveEnvName(optionalEnv...)
	viper.Set(CurrentEnvironment, envName)
	viper.Set(IniSource, "env")

	if err := WriteIniFromStruct(iniPath, envName); err != nil {
		return "", fmt.Errorf("write ini failed: %w", err)
	}
	return envName, nil
}

// LoadConfig maps the active viper settings into the SDK configuration.
func LoadConfig() config.Config {
	timeout := viper.GetDuration(RdeTimeout)
	return config.Config{
		Core: config.CoreConfig{
			BaseURL:     viper.GetString(RdeEndpoint),
			MaterialURL: viper.GetString(RdeMaterialEndpoint),
			AccessToken: viper.GetString(RdeAccessToken),
			Timeout:     timeout,
		},
		S3: config.S3Config{
			AccessKey:   viper.GetString(AwsAccessKeyID),
			SecretKey:   viper.GetString(AwsSecretAccessKey),
			AccessToken: viper.GetString(AwsSessionToken),
			Region:      viper.GetString(AwsRegion),
			EndpointURL: viper.GetString(AwsEndpointURL),
			Bucket:      viper.GetString(S3Bucket),
			Prefix:      viper.GetString(S3Prefix),
		},
		Staging: config.StagingConfig{
			BaseTempDir: viper.GetString(StagingBaseDir),
			MetadataDir: viper.GetString(MetadataDir),
			OutputDir:   viper.GetString(OutputDir),
		}.WithDefaults(),
	}
}
