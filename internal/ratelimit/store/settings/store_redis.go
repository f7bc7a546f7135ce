package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"syncauth/internal/ratelimit/config"
	pstrings "syncauth/pkg/platform/strings"
)

// DefaultKey is the hash holding the auth service overrides.
const DefaultKey = "syncauth:authservice:config"

// Hash fields. A missing field keeps the startup value.
const (
	FieldFailedAuthForTempBan     = "FailedAuthForTempBan"
	FieldTempBanDurationInMinutes = "TempBanDurationInMinutes"
	FieldWhitelistedIps           = "WhitelistedIps"
)

// RedisOverridesStore reads runtime overrides from a Redis hash.
type RedisOverridesStore struct {
	client redis.UniversalClient
	key    string
}

func NewRedis(client redis.UniversalClient, key string) *RedisOverridesStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisOverridesStore{client: client, key: key}
}

// Load returns the current overrides. Unparseable numeric fields are skipped
// and reported in the returned error alongside the fields that did parse.
func (s *RedisOverridesStore) Load(ctx context.Context) (config.Overrides, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return config.Overrides{}, fmt.Errorf("read overrides %s: %w", s.key, err)
	}

	var (
		out     config.Overrides
		invalid []string
	)
	if raw, ok := fields[FieldFailedAuthForTempBan]; ok {
		if v, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			out.FailedAuthThreshold = &v
		} else {
			invalid = append(invalid, FieldFailedAuthForTempBan)
		}
	}
	if raw, ok := fields[FieldTempBanDurationInMinutes]; ok {
		if v, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			out.TempBanDurationMinutes = &v
		} else {
			invalid = append(invalid, FieldTempBanDurationInMinutes)
		}
	}
	if raw, ok := fields[FieldWhitelistedIps]; ok {
		out.WhitelistedAddresses = SplitList(raw)
	}

	if len(invalid) > 0 {
		return out, fmt.Errorf("invalid override fields: %s", strings.Join(invalid, ","))
	}
	return out, nil
}

// Save writes the non-nil overrides into the hash.
func (s *RedisOverridesStore) Save(ctx context.Context, o config.Overrides) error {
	values := map[string]any{}
	if o.FailedAuthThreshold != nil {
		values[FieldFailedAuthForTempBan] = *o.FailedAuthThreshold
	}
	if o.TempBanDurationMinutes != nil {
		values[FieldTempBanDurationInMinutes] = *o.TempBanDurationMinutes
	}
	if o.WhitelistedAddresses != nil {
		values[FieldWhitelistedIps] = strings.Join(o.WhitelistedAddresses, ",")
	}
	if len(values) == 0 {
		return nil
	}
	if err := s.client.HSet(ctx, s.key, values).Err(); err != nil {
		return fmt.Errorf("write overrides %s: %w", s.key, err)
	}
	return nil
}

// SplitList parses a comma separated list, dropping blank entries.
func SplitList(raw string) []string {
	return pstrings.DedupeAndTrim(strings.Split(raw, ","))
}
