package service

import (
	"encoding/json"
	"errors"

	"github.com/asdine/storm/v3"
)

func notFoundErr(err error) bool {
	return errors.Is(err, storm.ErrNotFound)
}

func marshalOrEmpty(v interface{}) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}
