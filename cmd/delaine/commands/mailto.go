package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	website "github.com/focusondelaine/website"
	"github.com/focusondelaine/website/internal/config"
)

type mailtoFlags struct {
	form       website.ContactForm
	configPath string
}

func newMailtoCmd() *cobra.Command {
	var flags mailtoFlags

	cmd := &cobra.Command{
		Use:   "mailto",
		Short: "Print the contact form's mailto link",
		Long: `Print the mailto link the contact form produces for the given field
values. Recipient and subject come from the configuration file when one is
given, otherwise the built-in defaults are used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mb := website.DefaultMailBuilder()
			if flags.configPath != "" {
				cfg, err := config.Load(flags.configPath)
				if err != nil {
					return err
				}
				if r := cfg.Contact.GetRecipient(); r != "" {
					mb.Recipient = r
				}
				if cfg.Contact.Subject != "" {
					mb.Subject = cfg.Contact.Subject
				}
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), mb.Build(flags.form))
			return err
		},
	}

	cmd.Flags().StringVar(&flags.form.Name, "name", "", "Name field")
	cmd.Flags().StringVar(&flags.form.Email, "email", "", "Email field")
	cmd.Flags().StringVar(&flags.form.Message, "message", "", "Message field")
	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "Configuration file to take recipient and subject from")

	return cmd
}
