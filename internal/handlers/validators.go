package handlers

import (
	"sync"

	"crowdmint-backend/internal/utils"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by the request DTOs:
//
//	base58sig   base58 encoded 64 byte transaction signature
//	base58addr  base58 encoded 32 byte public key
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("base58sig", func(fl validator.FieldLevel) bool {
			return utils.IsSolanaSignature(fl.Field().String())
		})
		_ = v.RegisterValidation("base58addr", func(fl validator.FieldLevel) bool {
			return utils.IsSolanaAddress(fl.Field().String())
		})
	})
}
