package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luocfprime/labtasker/internal/model"
)

func TestRequiredFieldsExistence(t *testing.T) {
	template := model.Map(map[string]model.Value{
		"a": model.Null(),
		"b": model.Map(map[string]model.Value{
			"c": model.Null(),
		}),
	})

	existence := requiredFieldsExistence(template)
	assert.Equal(t, map[string]bool{
		"args.a":   true,
		"args.b.c": true,
	}, existence)
}

func TestRequiredFieldsExistence_Empty(t *testing.T) {
	assert.Nil(t, requiredFieldsExistence(model.Null()))
	assert.Nil(t, requiredFieldsExistence(model.Map(map[string]model.Value{})))
}
