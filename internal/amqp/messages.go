package amqp

import (
	"encoding/json"

	"finboard/internal/notify"
)

func MarshalNotice(n notify.Notice) ([]byte, error) {
	return json.Marshal(n)
}

func UnmarshalNotice(data []byte) (notify.Notice, error) {
	var n notify.Notice
	if err := json.Unmarshal(data, &n); err != nil {
		return notify.Notice{}, err
	}
	return n, nil
}
