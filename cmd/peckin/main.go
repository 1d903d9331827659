package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peckin/peckin/backend/go-services/pkg/logger"
	"github.com/peckin/peckin/backend/go-services/pkg/peckin"
)

// peckin is a command-line client for the Peck-In backend. It signs in (or
// resumes a saved session), then shows the home and profile screens and
// optionally fills in the profile form.
func main() {
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "account password")
	signUp := flag.Bool("signup", false, "create the account instead of signing in")
	signOut := flag.Bool("signout", false, "sign out and forget the saved session")
	first := flag.String("first-name", "", "profile first name (submits the form when the profile is incomplete)")
	last := flag.String("last-name", "", "profile last name")
	emplID := flag.String("empl-id", "", "profile employee/student id")
	major := flag.String("major", "", "comma-separated majors")
	minor := flag.String("minor", "", "comma-separated minors")
	year := flag.String("year", "", "profile year")
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"))
	// stdout carries the screens
	logger.SetOutput(os.Stderr)
	defer logger.Sync()

	cfg, err := peckin.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	home, _ := os.UserHomeDir()
	tokens := &peckin.FileTokenStore{Path: filepath.Join(home, ".peckin", cfg.ProjectID+".json")}
	provider := peckin.NewHTTPProvider(cfg, peckin.WithTokenStore(tokens))
	if _, err := provider.Restore(ctx); err != nil {
		logger.Warnf("could not resume saved session: %v", err)
	}
	gateway := peckin.NewAuthGateway(provider)

	observer := peckin.NewSessionObserver(gateway)
	defer observer.Close()

	if *signOut {
		if err := gateway.SignOut(ctx); err != nil {
			logger.Fatalf("sign out: %v", err)
		}
		fmt.Println("Signed out.")
		return
	}

	if !gateway.IsAuthenticated() || *email != "" {
		login := peckin.NewLoginForm(gateway)
		login.SetEmail(*email)
		login.SetPassword(*password)
		if *signUp {
			login.ToggleMode()
		}
		v := login.Submit(ctx)
		if !v.Done {
			fmt.Fprintf(os.Stderr, "%s: %s\n", v.Title, v.Error)
			os.Exit(1)
		}
	}

	state, err := observer.Wait(ctx)
	if err != nil {
		logger.Fatalf("waiting for session: %v", err)
	}
	h := peckin.Home(state)
	fmt.Println(h.Title)
	fmt.Printf("Email: %s\nUser ID: %s\nDetails: %s\n", h.Email, h.UserID, h.DetailsLink)

	flow := peckin.NewDetailFlow(peckin.NewProfileStoreGateway(provider))
	defer flow.Close()
	fs := flow.SetUser(ctx, state.User)
	if fs.Kind == peckin.NeedsInput && *first != "" {
		fs, err = flow.Submit(ctx, peckin.ProfileDocument{
			EmplID:    *emplID,
			FirstName: *first,
			LastName:  *last,
			Major:     splitList(*major),
			Minor:     splitList(*minor),
			Year:      *year,
		})
		if err != nil {
			logger.Fatalf("saving profile: %v", err)
		}
	}
	printProfile(peckin.Profile(observer.State(), fs))
}

func printProfile(v peckin.ProfileView) {
	fmt.Println(v.Title)
	switch v.Mode {
	case "form":
		fmt.Println("Profile incomplete: pass -first-name (and optionally -last-name, -empl-id, -major, -minor, -year).")
	case "profile":
		f := v.Fields
		fmt.Printf("First name: %s\nLast name: %s\nEmpl ID: %s\nMajor: %s\nMinor: %s\nYear: %s\n",
			f.FirstName, f.LastName, f.EmplID, f.Major, f.Minor, f.Year)
	case "error":
		fmt.Println(v.Error)
	default:
		fmt.Println(v.Prompt)
	}
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
