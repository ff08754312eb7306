package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"
)

// property readers accept the loose typing found in exported datasets: booleans as bool, number
// or "yes"/"true"/"1" strings, numbers as number or string.

func propString(props geojson.Properties, keys ...string) (string, bool) {
	for _, key := range keys {
		v, ok := props[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			if val != "" {
				return val, true
			}
		case float64:
			if val == math.Trunc(val) {
				return strconv.FormatInt(int64(val), 10), true
			}
			return strconv.FormatFloat(val, 'f', -1, 64), true
		default:
			return fmt.Sprint(val), true
		}
	}
	return "", false
}

func propFloat(props geojson.Properties, keys ...string) (float64, bool) {
	for _, key := range keys {
		switch val := props[key].(type) {
		case float64:
			return val, true
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func propBool(props geojson.Properties, keys ...string) (bool, bool) {
	for _, key := range keys {
		switch val := props[key].(type) {
		case bool:
			return val, true
		case float64:
			return val != 0, true
		case string:
			switch strings.ToLower(strings.TrimSpace(val)) {
			case "yes", "true", "1", "y":
				return true, true
			case "no", "false", "0", "n":
				return false, true
			}
		}
	}
	return false, false
}
