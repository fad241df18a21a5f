package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// SetValue sets a configuration value by its yaml key.
func (c *Config) SetValue(key, value string) error {
	field, ok := settingsField(&c.Settings, key)
	if !ok {
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	previous := reflect.New(field.Type()).Elem()
	previous.Set(field)

	switch field.Interface().(type) {
	case string:
		field.SetString(value)
	case time.Duration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %s", key, value)
		}
		field.SetInt(int64(d))
	case int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %s", key, value)
		}
		field.SetInt(int64(n))
	case []string:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		field.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported configuration key: %s", key)
	}
	if err := c.Validate(); err != nil {
		field.Set(previous)
		return err
	}
	return nil
}

// GetValue returns a configuration value by its yaml key.
func (c *Config) GetValue(key string) (string, error) {
	field, ok := settingsField(&c.Settings, key)
	if !ok {
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
	return formatValue(field), nil
}

// ToMap flattens the settings into yaml key / string value pairs.
// This is useful for displaying the configuration.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string)

	v := reflect.ValueOf(c.Settings)
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		key := yamlKey(t.Field(i))
		if key == "" {
			continue
		}
		result[key] = formatValue(v.Field(i))
	}
	return result
}

func settingsField(s *Settings, key string) (reflect.Value, bool) {
	v := reflect.ValueOf(s).Elem()
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		if yamlKey(t.Field(i)) == key {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func yamlKey(f reflect.StructField) string {
	tag := f.Tag.Get("yaml")
	if tag == "" || tag == "-" {
		return ""
	}
	return strings.Split(tag, ",")[0]
}

func formatValue(v reflect.Value) string {
	switch val := v.Interface().(type) {
	case time.Duration:
		return val.String()
	case []string:
		return strings.Join(val, ",")
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
