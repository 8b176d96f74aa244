package service

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const questionSetSchemaURL = "schema://quiz-question-set.json"

// questionSetSchema 同时作为 OpenAI 的 response_format
const questionSetSchema = `{
  "type": "object",
  "required": ["questions"],
  "properties": {
    "questions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["stem", "options"],
        "properties": {
          "questionType": {"type": ["string", "null"]},
          "stem": {"type": "string"},
          "explanation": {"type": ["string", "null"]},
          "options": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["text"],
              "properties": {
                "optionId": {"type": ["string", "null"]},
                "text": {"type": "string"},
                "isCorrect": {"type": ["boolean", "null"]}
              }
            }
          }
        }
      }
    }
  }
}`

var (
	questionSchemaOnce sync.Once
	questionSchema     *jsonschema.Schema
	questionSchemaErr  error
)

func compiledQuestionSchema() (*jsonschema.Schema, error) {
	questionSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(questionSetSchema))
		if err != nil {
			questionSchemaErr = fmt.Errorf("parse question schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(questionSetSchemaURL, doc); err != nil {
			questionSchemaErr = fmt.Errorf("add question schema: %w", err)
			return
		}
		questionSchema, questionSchemaErr = c.Compile(questionSetSchemaURL)
	})
	return questionSchema, questionSchemaErr
}

// validateQuestionSet 校验出题服务返回的原始 JSON
func validateQuestionSet(raw []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	schema, err := compiledQuestionSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
