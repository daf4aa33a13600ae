package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stoop-politics/stoop/internal/auth"
	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/transcript"
)

// rawGet affiche la réponse JSON d'un GET, même en cas d'erreur HTTP.
func rawGet(ctx *commandContext, path string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rctx, cancel := ctx.requestContext(cmd)
		defer cancel()
		b, err := ctx.client().do(rctx, http.MethodGet, path, nil)
		if len(b) > 0 {
			printJSON(cmd.OutOrStdout(), b)
		}
		return err
	}
}

func newHealthCommand(ctx *commandContext) *cobra.Command {
	var notifications bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Vérifie l'état du serveur",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/health"
			if notifications {
				path = "/api/v1/notifications/health"
			}
			return rawGet(ctx, path)(cmd, args)
		},
	}
	cmd.Flags().BoolVar(&notifications, "notifications", false, "Vérifie la chaîne de notification (stockage + email)")
	return cmd
}

func newVersionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Affiche la version du serveur",
		Args:  cobra.NoArgs,
		RunE:  rawGet(ctx, "/api/v1/version"),
	}
}

func newEpisodesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "episodes",
		Short: "Gestion des épisodes",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Liste les épisodes (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rctx, cancel := ctx.requestContext(cmd)
			defer cancel()
			var eps []domain.Episode
			if err := ctx.client().getJSON(rctx, "/api/v1/admin/episodes", &eps); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderEpisodes(eps))
			return nil
		},
	}

	publish := &cobra.Command{
		Use:   "publish <id>",
		Short: "Publie un épisode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rctx, cancel := ctx.requestContext(cmd)
			defer cancel()
			b, err := ctx.client().do(rctx, http.MethodPost, "/api/v1/admin/episodes/"+url.PathEscape(args[0])+"/publish", nil)
			if len(b) > 0 {
				printJSON(cmd.OutOrStdout(), b)
			}
			return err
		},
	}

	notify := &cobra.Command{
		Use:   "notify <id>",
		Short: "Met en file l'annonce d'un épisode publié",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rctx, cancel := ctx.requestContext(cmd)
			defer cancel()
			b, err := ctx.client().do(rctx, http.MethodPost, "/api/v1/admin/episodes/"+url.PathEscape(args[0])+"/notify", nil)
			if len(b) > 0 {
				printJSON(cmd.OutOrStdout(), b)
			}
			return err
		},
	}

	cmd.AddCommand(list, publish, notify)
	return cmd
}

func renderEpisodes(eps []domain.Episode) string {
	rows := make([][]string, 0, len(eps))
	for _, ep := range eps {
		published := "-"
		if ep.PublishedAt != nil {
			published = ep.PublishedAt.Local().Format("2006-01-02 15:04")
		}
		duration := "-"
		if ep.DurationSeconds != nil {
			duration = transcript.FormatTimestamp(float64(*ep.DurationSeconds))
		}
		rows = append(rows, []string{ep.ID, ep.Title, published, duration})
	}
	return renderTable([]string{"ID", "Title", "Published", "Duration"}, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight})
}

func newSubscribersCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscribers",
		Short: "Gestion des abonnés",
	}

	var filter, query string
	list := &cobra.Command{
		Use:   "list",
		Short: "Liste les abonnés",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rctx, cancel := ctx.requestContext(cmd)
			defer cancel()
			q := url.Values{}
			if filter != "" {
				q.Set("filter", filter)
			}
			if query != "" {
				q.Set("q", query)
			}
			path := "/api/v1/admin/subscribers"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}
			var subs []domain.Subscriber
			if err := ctx.client().getJSON(rctx, path, &subs); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSubscribers(subs))
			return nil
		},
	}
	list.Flags().StringVar(&filter, "filter", "", "all | active | notifications")
	list.Flags().StringVarP(&query, "query", "q", "", "Filtre sur l'email")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Compteurs d'abonnés",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rctx, cancel := ctx.requestContext(cmd)
			defer cancel()
			var c domain.SubscriberCounts
			if err := ctx.client().getJSON(rctx, "/api/v1/admin/subscribers/stats", &c); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Total", "Active", "Notifications", "Banned"},
				[][]string{{strconv.Itoa(c.Total), strconv.Itoa(c.Active), strconv.Itoa(c.WithNotifications), strconv.Itoa(c.Banned)}},
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status <id> <active|unsubscribed|banned>",
		Short: "Change le statut d'un abonné",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rctx, cancel := ctx.requestContext(cmd)
			defer cancel()
			body := map[string]string{"status": args[1]}
			b, err := ctx.client().do(rctx, http.MethodPut, "/api/v1/admin/subscribers/"+url.PathEscape(args[0])+"/status", body)
			if len(b) > 0 {
				printJSON(cmd.OutOrStdout(), b)
			}
			return err
		},
	}

	cmd.AddCommand(list, stats, status)
	return cmd
}

func renderSubscribers(subs []domain.Subscriber) string {
	rows := make([][]string, 0, len(subs))
	for _, s := range subs {
		notif := "no"
		if s.NotificationsEnabled {
			notif = "yes"
		}
		rows = append(rows, []string{s.Email, string(s.Status), notif, s.SubscribedAt.Local().Format("2006-01-02")})
	}
	return renderTable([]string{"Email", "Status", "Notifications", "Subscribed"}, rows, nil)
}

func newInboxCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Questions \"Ask the Stoop\", plus récentes d'abord",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rctx, cancel := ctx.requestContext(cmd)
			defer cancel()
			path := "/api/v1/admin/inbox"
			if limit > 0 {
				path += "?limit=" + strconv.Itoa(limit)
			}
			var msgs []domain.InboxMessage
			if err := ctx.client().getJSON(rctx, path, &msgs); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderInbox(msgs))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Nombre maximum de messages")
	return cmd
}

func renderInbox(msgs []domain.InboxMessage) string {
	rows := make([][]string, 0, len(msgs))
	for _, m := range msgs {
		rows = append(rows, []string{m.CreatedAt.Local().Format("2006-01-02 15:04"), m.Message})
	}
	return renderTable([]string{"Received", "Message"}, rows, nil)
}

func newBroadcastCommand(ctx *commandContext) *cobra.Command {
	var subject, message string
	var async bool
	cmd := &cobra.Command{
		Use:   "broadcast",
		Short: "Envoie un message à tous les abonnés notifiables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(subject) == "" || strings.TrimSpace(message) == "" {
				return errors.New("--subject and --message are required")
			}
			// L'envoi synchrone est rythmé côté serveur : pas de timeout court ici.
			rctx := cmd.Context()
			path := "/api/v1/admin/broadcast"
			if async {
				path += "?async=1"
			}
			c := newAPIClient(ctx.server, ctx.token, 0)
			b, err := c.do(rctx, http.MethodPost, path, map[string]string{"subject": subject, "message": message})
			if len(b) > 0 {
				printJSON(cmd.OutOrStdout(), b)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Sujet de l'email")
	cmd.Flags().StringVarP(&message, "message", "m", "", "Corps du message (texte, retours à la ligne conservés)")
	cmd.Flags().BoolVar(&async, "async", false, "Passe par la file de jobs")
	return cmd
}

// newLinkCommand calcule un lien de partage horodaté sans appel serveur.
func newLinkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "link <url> <seconds>",
		Short: "Construit un lien de partage vers un instant d'un épisode",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, ok := transcript.ParseDeepLinkValue(args[1])
			if !ok {
				return fmt.Errorf("invalid time %q", args[1])
			}
			t = transcript.ClampTime(t, 0)
			link, err := transcript.ShareableLink(args[0], t)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", transcript.FormatTimestamp(t), link)
			return nil
		},
	}
}

func newTokenCommand() *cobra.Command {
	var secret, subject, email, role string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Signe un access token admin avec le secret JWT partagé",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("--secret (or SUPABASE_JWT_SECRET) is required")
			}
			tok, err := auth.Sign([]byte(secret), subject, email, role, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", envOr("SUPABASE_JWT_SECRET", ""), "Secret JWT (HS256)")
	cmd.Flags().StringVar(&subject, "sub", "stoop-cli", "Claim sub")
	cmd.Flags().StringVar(&email, "email", "", "Claim email")
	cmd.Flags().StringVar(&role, "role", "authenticated", "Claim role")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Durée de validité")
	return cmd
}
