package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pinboardapi/internal/app"
	"pinboardapi/internal/config"
	"pinboardapi/internal/logger"
	"pinboardapi/pinboard"
)

// newApp loads the configuration and wires the application. Commands that run
// before credentials exist pass validate=false; their client never reads the
// configured API token.
func newApp(cmd *cobra.Command, flags *globalFlags, validate bool) (*app.App, error) {
	load := config.Load
	if !validate {
		load = config.LoadUnvalidated
	}
	cfg, err := load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	l := logger.NewWithWriter(cmd.ErrOrStderr(), level)

	newClient := app.NewPinboardClient
	if !validate {
		newClient = app.NewLoginClient
	}
	client, err := newClient(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("error creating Pinboard client: %w", err)
	}

	return app.NewApp(
		app.WithConfig(cfg),
		app.WithPinboardClient(client),
		app.WithLogger(l),
		app.WithOutput(cmd.OutOrStdout()),
	), nil
}

// yesNoFlag returns nil unless the flag was given, so the API default applies.
func yesNoFlag(cmd *cobra.Command, name string) *pinboard.YesNo {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetBool(name)
	return pinboard.Flag(v)
}

func parseTime(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q, expected RFC 3339 like 2010-12-11T19:48:02Z: %w", name, value, err)
	}
	return t, nil
}

func newUpdateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Show when bookmarks last changed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags, true)
			if err != nil {
				return err
			}
			return a.LastUpdate(cmd.Context())
		},
	}
}

func newAddCmd(flags *globalFlags) *cobra.Command {
	var (
		req  app.AddRequest
		tags []string
		dt   string
	)
	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Add a bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := parseTime("dt", dt)
			if err != nil {
				return err
			}
			req.URL = args[0]
			req.Options.Tags = tags
			req.Options.Time = created
			req.Options.Replace = yesNoFlag(cmd, "replace")
			req.Options.Shared = yesNoFlag(cmd, "shared")
			req.Options.ToRead = yesNoFlag(cmd, "toread")

			a, err := newApp(cmd, flags, true)
			if err != nil {
				return err
			}
			return a.Add(cmd.Context(), req)
		},
	}
	cmd.Flags().StringVar(&req.Title, "title", "", "bookmark title")
	cmd.Flags().BoolVar(&req.FetchTitle, "fetch-title", false, "use the page's own title when --title is empty")
	cmd.Flags().StringVar(&req.Options.Extended, "extended", "", "bookmark description")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "tags, comma separated")
	cmd.Flags().StringVar(&dt, "dt", "", "creation time (RFC 3339)")
	cmd.Flags().Bool("replace", true, "replace an existing bookmark for the URL")
	cmd.Flags().Bool("shared", true, "make the bookmark public")
	cmd.Flags().Bool("toread", false, "mark the bookmark unread")
	return cmd
}

func newDeleteCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <url>",
		Short: "Delete a bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags, true)
			if err != nil {
				return err
			}
			return a.Delete(cmd.Context(), args[0])
		},
	}
}

func newRecentCmd(flags *globalFlags) *cobra.Command {
	var opts pinboard.RecentOptions
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recent bookmarks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags, true)
			if err != nil {
				return err
			}
			return a.Recent(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringSliceVar(&opts.Tags, "tag", nil, "filter by up to three tags")
	cmd.Flags().IntVar(&opts.Count, "count", 0, "number of results, at most 100 (server default 15)")
	return cmd
}

func newAllCmd(flags *globalFlags) *cobra.Command {
	var (
		opts              pinboard.AllOptions
		from, to, changed string
	)
	cmd := &cobra.Command{
		Use:   "all",
		Short: "List every bookmark",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if opts.From, err = parseTime("from", from); err != nil {
				return err
			}
			if opts.To, err = parseTime("to", to); err != nil {
				return err
			}
			since, err := parseTime("if-changed-since", changed)
			if err != nil {
				return err
			}

			a, err := newApp(cmd, flags, true)
			if err != nil {
				return err
			}
			return a.All(cmd.Context(), opts, since)
		},
	}
	cmd.Flags().StringSliceVar(&opts.Tags, "tag", nil, "filter by up to three tags")
	cmd.Flags().IntVar(&opts.Start, "start", 0, "offset of the first result")
	cmd.Flags().IntVar(&opts.Results, "results", 0, "number of results (server default all)")
	cmd.Flags().StringVar(&from, "from", "", "only bookmarks created after this time (RFC 3339)")
	cmd.Flags().StringVar(&to, "to", "", "only bookmarks created before this time (RFC 3339)")
	cmd.Flags().BoolVar(&opts.Meta, "meta", false, "include a change detection signature")
	cmd.Flags().StringVar(&changed, "if-changed-since", "", "skip the download unless bookmarks changed after this time (RFC 3339)")
	return cmd
}

func newGetCmd(flags *globalFlags) *cobra.Command {
	var (
		opts pinboard.GetOptions
		date string
	)
	cmd := &cobra.Command{
		Use:   "get",
		Short: "List the bookmarks of one day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if date != "" {
				d, err := time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid --date %q, expected 2006-01-02: %w", date, err)
				}
				opts.Date = pinboard.Day{Time: d}
			}
			opts.Meta = yesNoFlag(cmd, "meta")

			a, err := newApp(cmd, flags, true)
			if err != nil {
				return err
			}
			return a.Get(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringSliceVar(&opts.Tags, "tag", nil, "filter by up to three tags")
	cmd.Flags().StringVar(&date, "date", "", "day to list (2006-01-02)")
	cmd.Flags().StringVar(&opts.URL, "url", "", "return the bookmark for this URL")
	cmd.Flags().Bool("meta", false, "include a change detection signature")
	return cmd
}

func newDatesCmd(flags *globalFlags) *cobra.Command {
	var opts pinboard.DatesOptions
	cmd := &cobra.Command{
		Use:   "dates",
		Short: "Count bookmarks per day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags, true)
			if err != nil {
				return err
			}
			return a.Dates(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringSliceVar(&opts.Tags, "tag", nil, "filter by up to three tags")
	return cmd
}

func newSuggestCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <url>",
		Short: "Suggest tags for a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags, true)
			if err != nil {
				return err
			}
			return a.Suggest(cmd.Context(), args[0])
		},
	}
}

func newTagsCmd(flags *globalFlags) *cobra.Command {
	tagsCmd := &cobra.Command{
		Use:   "tags",
		Short: "Manage tags",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tags with their use counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags, true)
			if err != nil {
				return err
			}
			return a.Tags(cmd.Context())
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <tag>",
		Short: "Remove a tag from every bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags, true)
			if err != nil {
				return err
			}
			return a.DeleteTag(cmd.Context(), args[0])
		},
	}

	renameCmd := &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a tag or fold it into another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags, true)
			if err != nil {
				return err
			}
			return a.RenameTag(cmd.Context(), args[0], args[1])
		},
	}

	tagsCmd.AddCommand(listCmd, deleteCmd, renameCmd)
	return tagsCmd
}

func newNotesCmd(flags *globalFlags) *cobra.Command {
	notesCmd := &cobra.Command{
		Use:   "notes",
		Short: "Read notes",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags, true)
			if err != nil {
				return err
			}
			return a.Notes(cmd.Context())
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags, true)
			if err != nil {
				return err
			}
			return a.Note(cmd.Context(), args[0])
		},
	}

	notesCmd.AddCommand(listCmd, showCmd)
	return notesCmd
}

func newSecretCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "secret",
		Short: "Show the RSS secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags, true)
			if err != nil {
				return err
			}
			return a.Secret(cmd.Context())
		},
	}
}

func newTokenCmd(flags *globalFlags) *cobra.Command {
	var login pinboard.Login
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Fetch the API token with a username and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags, false)
			if err != nil {
				return err
			}
			if login.User == "" {
				login.User = a.Config.Pinboard.User
			}
			return a.AccessToken(cmd.Context(), login)
		},
	}
	cmd.Flags().StringVar(&login.User, "user", "", "Pinboard username (default pinboard.user)")
	cmd.Flags().StringVar(&login.Password, "password", "", "Pinboard password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newEncryptTokenCmd(flags *globalFlags) *cobra.Command {
	var token, passphrase string
	cmd := &cobra.Command{
		Use:   "encrypt-token",
		Short: "Encrypt an API token for pinboard.encrypted_token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags, false)
			if err != nil {
				return err
			}
			if passphrase == "" {
				passphrase = a.Config.Pinboard.Passphrase
			}
			return a.EncryptToken(token, passphrase)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "API token to encrypt")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "passphrase (default pinboard.passphrase or PINBOARD_PASSPHRASE)")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}
