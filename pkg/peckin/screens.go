package peckin

import (
	"context"
	"net/url"
	"strings"
	"sync"
)

// Route identifies a screen in the navigation surface.
type Route string

const (
	RouteHome    Route = "/"
	RouteScan    Route = "/scan"
	RouteProfile Route = "/profile"
	RouteLogin   Route = "/login"
	RouteDetails Route = "/details"
)

// Tabs are the top-level screens, in display order.
var Tabs = []Route{RouteHome, RouteScan, RouteProfile}

const loadingText = "Loading..."

// HomeView is the home tab.
type HomeView struct {
	Title       string
	Loading     bool
	SignedIn    bool
	Email       string
	UserID      string
	DetailsLink string
	Prompt      string
}

func Home(s SessionState) HomeView {
	v := HomeView{Title: "Welcome to Peck-In!", Loading: s.Loading}
	if s.Loading {
		v.Prompt = loadingText
		return v
	}
	if !s.IsAuthenticated {
		v.Prompt = "Please sign in to access your account"
		return v
	}
	v.SignedIn = true
	v.Email = s.User.Email
	v.UserID = s.User.ID
	v.DetailsLink = DetailsLink(s.User.Email)
	return v
}

// ScanView is the scan tab placeholder.
type ScanView struct {
	Title string
}

func Scan() ScanView { return ScanView{Title: "Scan Placeholder"} }

// ProfileFields is the read-only profile rendering.
type ProfileFields struct {
	FirstName string
	LastName  string
	EmplID    string
	Major     string
	Minor     string
	Year      string
}

// ProfileView is the profile tab. Mode is one of "loading", "form",
// "profile" or "error" once signed in.
type ProfileView struct {
	Title    string
	Loading  bool
	SignedIn bool
	Email    string
	UserID   string
	Prompt   string
	Mode     string
	Fields   ProfileFields
	Error    string
}

func Profile(s SessionState, f FlowState) ProfileView {
	v := ProfileView{Title: "Profile", Loading: s.Loading}
	if s.Loading {
		v.Prompt = loadingText
		return v
	}
	if !s.IsAuthenticated {
		v.Prompt = "Please sign in to view your profile."
		return v
	}
	v.SignedIn = true
	v.Email = s.User.Email
	v.UserID = s.User.ID
	switch f.Kind {
	case Unresolved:
		v.Mode = "loading"
	case NeedsInput:
		v.Mode = "form"
	case Complete:
		v.Mode = "profile"
		v.Fields = ProfileFields{
			FirstName: f.Doc.FirstName,
			LastName:  f.Doc.LastName,
			EmplID:    f.Doc.EmplID,
			Major:     strings.Join(f.Doc.Major, ", "),
			Minor:     strings.Join(f.Doc.Minor, ", "),
			Year:      f.Doc.Year,
		}
	case Failed:
		v.Mode = "error"
		v.Error = "Could not load your profile. Try again."
	}
	return v
}

// DetailsView is the details stack screen.
type DetailsView struct {
	Title string
}

func Details(name string) DetailsView {
	return DetailsView{Title: "Showing details for " + name}
}

// DetailsLink builds the details route carrying name as a query parameter.
func DetailsLink(name string) string {
	return string(RouteDetails) + "?" + url.Values{"name": {name}}.Encode()
}

// DetailsFromLink parses a link produced by DetailsLink.
func DetailsFromLink(link string) (DetailsView, error) {
	u, err := url.Parse(link)
	if err != nil {
		return DetailsView{}, err
	}
	return Details(u.Query().Get("name")), nil
}

const fillRequiredFields = "Please fill in all required fields"

// LoginForm is the login stack screen. It switches between sign-in and
// sign-up and reports the outcome of the last submit.
type LoginForm struct {
	gateway *AuthGateway

	mu       sync.Mutex
	email    string
	password string
	signUp   bool
	busy     bool
	errMsg   string
	done     bool
}

func NewLoginForm(g *AuthGateway) *LoginForm {
	return &LoginForm{gateway: g}
}

// LoginView is what the login screen renders.
type LoginView struct {
	Title      string
	Heading    string
	Subtitle   string
	Submit     string
	Toggle     string
	Busy       bool
	Error      string
	Done       bool
	RedirectTo Route
	IsSignUp   bool
}

func (l *LoginForm) View() LoginView {
	l.mu.Lock()
	defer l.mu.Unlock()
	v := LoginView{Busy: l.busy, Error: l.errMsg, Done: l.done, IsSignUp: l.signUp}
	if l.signUp {
		v.Title, v.Heading, v.Subtitle = "Sign Up", "Create Account", "Sign up to get started with Peck-In"
		v.Submit, v.Toggle = "Sign Up", "Already have an account? Sign In"
	} else {
		v.Title, v.Heading, v.Subtitle = "Sign In", "Welcome Back", "Sign in to continue to Peck-In"
		v.Submit, v.Toggle = "Sign In", "Don't have an account? Sign Up"
	}
	if l.busy {
		v.Submit = "Please wait..."
	}
	if l.done {
		v.RedirectTo = RouteHome
	}
	return v
}

func (l *LoginForm) SetEmail(v string) {
	l.mu.Lock()
	l.email = v
	l.mu.Unlock()
}

func (l *LoginForm) SetPassword(v string) {
	l.mu.Lock()
	l.password = v
	l.mu.Unlock()
}

// ToggleMode switches between sign-in and sign-up.
func (l *LoginForm) ToggleMode() {
	l.mu.Lock()
	l.signUp = !l.signUp
	l.mu.Unlock()
}

// Submit signs in or signs up with the entered credentials. It returns the
// resulting view; a failure is reported in View.Error. Submits while one is
// running are ignored.
func (l *LoginForm) Submit(ctx context.Context) LoginView {
	l.mu.Lock()
	if l.busy {
		l.mu.Unlock()
		return l.View()
	}
	email, password, signUp := strings.TrimSpace(l.email), l.password, l.signUp
	if email == "" || password == "" {
		l.errMsg = fillRequiredFields
		l.mu.Unlock()
		return l.View()
	}
	l.busy, l.errMsg = true, ""
	l.mu.Unlock()

	var err error
	if signUp {
		_, err = l.gateway.SignUp(ctx, email, password)
	} else {
		_, err = l.gateway.SignIn(ctx, email, password)
	}

	l.mu.Lock()
	l.busy = false
	if err != nil {
		l.errMsg = AuthMessage(err)
	} else {
		l.done = true
	}
	l.mu.Unlock()
	return l.View()
}
