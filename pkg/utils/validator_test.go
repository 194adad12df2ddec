package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/uats/pkg/errors"
)

type transferForm struct {
	FromAccount   string `validate:"required"`
	ToAccount     string `validate:"required,nefield=FromAccount"`
	Amount        string `validate:"required,positive_decimal"`
	ChainPriority string `validate:"omitempty,oneof=high medium low"`
}

func TestValidateStruct(t *testing.T) {
	ok := transferForm{FromAccount: "main", ToAccount: "sub-1", Amount: "0.25", ChainPriority: "high"}
	assert.Nil(t, ValidateStruct(ok))

	bad := transferForm{FromAccount: "main", ToAccount: "main", Amount: "-3", ChainPriority: "urgent"}
	err := ValidateStruct(bad)
	require.NotNil(t, err)
	assert.True(t, errors.HasCode(err, "invalid_request"))

	fields, _ := err.Metadata()["fields"].(map[string]interface{})
	assert.Equal(t, "must differ from from_account", fields["to_account"])
	assert.Equal(t, "must be a positive number", fields["amount"])
	assert.Equal(t, "must be one of: high medium low", fields["chain_priority"])
}

func TestToSnakeCase(t *testing.T) {
	assert.Equal(t, "from_account", ToSnakeCase("FromAccount"))
	assert.Equal(t, "user_id", ToSnakeCase("UserID"))
	assert.Equal(t, "key_name", ToSnakeCase("keyName"))
}
