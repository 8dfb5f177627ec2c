// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

var (
	errExpectedPointerToStruct = errors.New("expected a pointer to a struct")
	errUnsupportedSliceType    = errors.New("unsupported slice type")
	errUnsupportedFieldType    = errors.New("unsupported field type")
)

var durationType = reflect.TypeOf(time.Duration(0))

// readEnv sets the fields of the struct spec points to from the environment
// variables named in their env tags.
//
// A field is only overwritten when its tag carries the "overwrite" option or
// its current value is the zero value.
func readEnv(spec any) error {
	structValue := reflect.ValueOf(spec)
	if structValue.Kind() != reflect.Ptr {
		return errors.Wrapf(errExpectedPointerToStruct, "got %s", structValue.Kind())
	}

	structValue = structValue.Elem()
	if structValue.Kind() != reflect.Struct {
		return errors.Wrapf(errExpectedPointerToStruct, "got a pointer to %s", structValue.Kind())
	}

	structType := structValue.Type()

	for i := range structValue.NumField() {
		field := structValue.Field(i)
		fieldType := structType.Field(i)

		tag := fieldType.Tag.Get("env")
		if tag == "" {
			if field.Kind() == reflect.Struct && field.CanAddr() && fieldType.IsExported() {
				if err := readEnv(field.Addr().Interface()); err != nil {
					return err
				}
			}

			continue
		}

		parts := strings.Split(tag, ",")
		name := parts[0]
		overwrite := slices.Contains(parts[1:], "overwrite")

		value, exists := os.LookupEnv(name)
		if !exists || !field.CanSet() {
			continue
		}

		if !overwrite && !field.IsZero() {
			continue
		}

		if err := setFieldValue(field, fieldType, name, value); err != nil {
			return err
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, fieldType reflect.StructField, name, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == durationType {
			d, err := time.ParseDuration(value)
			if err != nil {
				return errors.Wrapf(err, "failed to parse duration for %s from env var %s (%s)", fieldType.Name, name, value)
			}

			field.SetInt(int64(d))

			return nil
		}

		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "failed to parse int for %s from env var %s (%s)", fieldType.Name, name, value)
		}

		field.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return errors.Wrapf(err, "failed to parse float for %s from env var %s (%s)", fieldType.Name, name, value)
		}

		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errors.Wrapf(err, "failed to parse bool for %s from env var %s (%s)", fieldType.Name, name, value)
		}

		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return errors.Wrapf(errUnsupportedSliceType, "field %s", fieldType.Name)
		}

		var values []string

		for _, v := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				values = append(values, trimmed)
			}
		}

		field.Set(reflect.ValueOf(values))
	default:
		return errors.Wrapf(errUnsupportedFieldType, "field %s: %s", fieldType.Name, field.Kind())
	}

	return nil
}

// useDotEnv loads a .env file from the working directory, or else from the
// directory of the binary. Variables already set in the environment win.
// A missing file is not an error.
func useDotEnv() error {
	candidates := make([]string, 0, 2)

	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, ".env"))
	} else {
		log.Warn().Err(err).Msg("Could not get current working directory")
	}

	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), ".env"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}

		if err := godotenv.Load(path); err != nil {
			return errors.Wrapf(err, "parse %s", path)
		}

		log.Info().
			Str("path", path).
			Msg("Loaded configuration from .env file")

		return nil
	}

	log.Info().Msg("No .env file found, skipping")

	return nil
}
