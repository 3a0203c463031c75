package redis

import (
	"context"
	"reflect"

	"github.com/redis/go-redis/v9"
)

// hashFields flattens a struct into redis hash fields using its redis tags.
// Nil pointer fields are skipped and non-nil ones are dereferenced.
func (r repo) hashFields(value any) map[string]any {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	fields := make(map[string]any)
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		tag := t.Field(i).Tag.Get("redis")
		if tag == "-" {
			continue
		}
		if tag == "" {
			tag = t.Field(i).Name
		}

		if field.Kind() == reflect.Ptr {
			if field.IsNil() {
				continue
			}
			fields[tag] = field.Elem().Interface()
			continue
		}

		fields[tag] = field.Interface()
	}

	return fields
}

// hSetIfExists writes fields into key only when the hash already exists.
func (r repo) hSetIfExists(ctx context.Context, key string, fields map[string]any) (bool, error) {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}

	res, err := hSetIfExistsScript.Run(ctx, r.rc, []string{key}, args...).Int()
	if err != nil {
		return false, err
	}

	return res == 1, nil
}

func (r repo) executePipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil && err != redis.Nil {
				return err
			}
		}

		return err
	}

	return nil
}
