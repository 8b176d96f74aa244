package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Choices 题目选项（有序）。只在存储边界序列化为 JSON 文本。
type Choices []string

func (c Choices) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(c))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *Choices) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*c = Choices{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("choices: unsupported column type %T", value)
	}
	if len(raw) == 0 {
		*c = Choices{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("choices: %w", err)
	}
	*c = out
	return nil
}

// Valid 判断下标是否落在选项范围内
func (c Choices) Valid(idx int) bool {
	return idx >= 0 && idx < len(c)
}
