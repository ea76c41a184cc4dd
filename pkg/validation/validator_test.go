package validation

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type payload struct {
	Nome  string `json:"nome" validate:"nome"`
	Email string `json:"email" validate:"required,email"`
	Senha string `json:"senha" validate:"senha"`
	Idade int    `json:"idade" validate:"gte=0,lte=130"`
}

func newValidate() *validator.Validate {
	v := validator.New()
	Register(v)
	return v
}

func TestToDetails_Aliases(t *testing.T) {
	err := newValidate().Struct(payload{Nome: "Al", Email: "", Senha: "123", Idade: 200})

	d := ToDetails(err)
	assert.Equal(t, "must be at least 3 characters long", d["nome"])
	assert.Equal(t, "is required", d["email"])
	assert.Equal(t, "must be at least 6 characters long", d["senha"])
	assert.Equal(t, "must be less than or equal to 130", d["idade"])
}

func TestToDetails_Required(t *testing.T) {
	d := ToDetails(newValidate().Struct(payload{Email: "a@b.co", Senha: "secret1"}))
	assert.Equal(t, map[string]string{"nome": "is required"}, d)
}

func TestToDetails_Valid(t *testing.T) {
	assert.Nil(t, ToDetails(newValidate().Struct(payload{Nome: "Ana", Email: "a@b.co", Senha: "secret1"})))
}

func TestToDetails_JSON(t *testing.T) {
	var p payload
	err := json.Unmarshal([]byte(`{"nome":`), &p)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))

	err = json.Unmarshal([]byte(`{"idade":"x"}`), &p)
	assert.Equal(t, map[string]string{"idade": "must be a int"}, ToDetails(err))
}
