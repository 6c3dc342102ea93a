// Command issue-token signs a bearer token for local testing against the API.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/stemsi/exstem-assessment/internal/config"
	"github.com/stemsi/exstem-assessment/internal/model"
	"github.com/stemsi/exstem-assessment/internal/service"
)

func main() {
	roleFlag := flag.String("role", "", "STUDENT, TEACHER or ADMIN")
	userFlag := flag.String("user", "", "user UUID (generated when empty)")
	ttl := flag.Duration("ttl", 8*time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.Load()
	reader := bufio.NewReader(os.Stdin)
	interactive := term.IsTerminal(int(syscall.Stdin))

	// ─── Role ──────────────────────────────────────────────────────────
	role := strings.ToUpper(strings.TrimSpace(*roleFlag))
	if role == "" && interactive {
		fmt.Print("Enter Role (STUDENT/TEACHER/ADMIN): ")
		line, _ := reader.ReadString('\n')
		role = strings.ToUpper(strings.TrimSpace(line))
	}
	switch model.Role(role) {
	case model.RoleStudent, model.RoleTeacher, model.RoleAdmin:
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown role %q\n", role)
		os.Exit(1)
	}

	// ─── User ID ───────────────────────────────────────────────────────
	userID := uuid.New()
	if *userFlag != "" {
		id, err := uuid.Parse(*userFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid user id: %v\n", err)
			os.Exit(1)
		}
		userID = id
	}

	// ─── Secret ────────────────────────────────────────────────────────
	secret := cfg.JWTSecret
	if interactive {
		fmt.Print("Signing secret (blank to use JWT_SECRET): ")
		b, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error reading secret")
			os.Exit(1)
		}
		if s := strings.TrimSpace(string(b)); s != "" {
			secret = s
		}
	}

	token, err := service.NewIdentityService(secret).IssueToken(model.Actor{
		UserID: userID,
		Role:   model.Role(role),
	}, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	if interactive {
		fmt.Printf("\nUser %s (%s), valid for %s:\n", userID, role, *ttl)
	}
	fmt.Println(token)
}
