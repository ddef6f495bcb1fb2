package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

// Prints admin credentials for the config:
//
//	-new              a fresh TOTP secret and its otpauth URL
//	-password <pw>    a bcrypt hash for admin.passwordHash
//	(default)         the current code for ADMIN_TOTP_SECRET
func main() {
	newSecret := flag.Bool("new", false, "generate a new TOTP secret")
	password := flag.String("password", "", "hash a password for admin.passwordHash")
	account := flag.String("account", "admin", "account name shown in the authenticator app")
	flag.Parse()

	if *password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
		if err != nil {
			fmt.Printf("Error hashing password: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("ADMIN_PASSWORD_HASH=%s\n", hash)
		return
	}

	if *newSecret {
		key, err := totp.Generate(totp.GenerateOpts{
			Issuer:      "Crowdmint Admin",
			AccountName: *account,
			Period:      30,
			Digits:      otp.DigitsSix,
			Algorithm:   otp.AlgorithmSHA1,
		})
		if err != nil {
			fmt.Printf("Error generating TOTP secret: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("ADMIN_TOTP_SECRET=%s\n", key.Secret())
		fmt.Printf("URL: %s\n", key.URL())
		return
	}

	secret := os.Getenv("ADMIN_TOTP_SECRET")
	if secret == "" {
		fmt.Println("ADMIN_TOTP_SECRET is not set, use -new to create one")
		os.Exit(1)
	}

	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		fmt.Printf("Error generating TOTP code: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Current TOTP Code: %s\n", code)
	fmt.Printf("Valid for: ~30 seconds\n")
}
