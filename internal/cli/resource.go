package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/debemdeboas/folio/internal/admin"
	"github.com/debemdeboas/folio/internal/content"
	"github.com/debemdeboas/folio/internal/model"
)

func newResourceCmd(env *Env, schema *content.Schema) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(schema.Kind),
		Short: fmt.Sprintf("Manage %s records", strings.ToLower(schema.Singular)),
	}

	cmd.AddCommand(newListCmd(env, schema))
	cmd.AddCommand(newGetCmd(env, schema))
	cmd.AddCommand(newCreateCmd(env, schema))
	cmd.AddCommand(newEditCmd(env, schema))
	cmd.AddCommand(newDeleteCmd(env, schema))
	cmd.AddCommand(newSchemaCmd(schema))

	return cmd
}

// quietErrors forwards everything but errors, which reach the user as the
// command's returned error instead.
func quietErrors(t *toaster) admin.Notifier {
	return admin.NotifierFunc(func(n admin.Notification) {
		if n.Level != admin.LevelError {
			t.Notify(n)
		}
	})
}

// parseWhere turns field=value pairs into a predicate over records.
func parseWhere(schema *content.Schema, pairs []string) (func(model.ContentRecord) bool, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	predicates := make([]func(model.ContentRecord) bool, 0, len(pairs))
	for _, pair := range pairs {
		name, want, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --where %q: expected field=value", pair)
		}
		if _, known := schema.Field(name); !known {
			return nil, fmt.Errorf("%s records have no field %q", strings.ToLower(schema.Singular), name)
		}
		predicates = append(predicates, admin.FieldEquals(name, want))
	}
	return admin.AllOf(predicates...), nil
}

func newListCmd(env *Env, schema *content.Schema) *cobra.Command {
	var where []string
	var limit int
	var published bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s", schema.Kind),
		Example: fmt.Sprintf(`  folio %[1]s list
  folio %[1]s list --limit 5 --published
  folio %[1]s list --where %[2]s`, schema.Kind, exampleWhere(schema)),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseWhere(schema, where)
			if err != nil {
				return err
			}

			query := url.Values{}
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}
			if cmd.Flags().Changed("published") {
				if _, ok := schema.Field("published"); !ok {
					return fmt.Errorf("%s have no published field", schema.Kind)
				}
				query.Set("published", strconv.FormatBool(published))
			}

			t := newToaster(cmd.ErrOrStderr())
			res := env.resource(schema, quietErrors(t), query)
			if err := res.List.Load(cmd.Context()); err != nil {
				return err
			}
			res.List.Filter(filter)
			records := res.List.Visible()

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			writeTable(cmd.OutOrStdout(), schema, records)
			if filter != nil {
				t.info("%d of %d %s shown", len(records), res.List.Len(), schema.Kind)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&where, "where", nil, "Show only records whose field equals value (field=value, repeatable)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of records to fetch (0 for all)")
	cmd.Flags().BoolVar(&published, "published", true, "Fetch only published (or, with =false, unpublished) records")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print records as JSON instead of a table")

	return cmd
}

func exampleWhere(schema *content.Schema) string {
	if len(schema.Filters) == 0 {
		return "title=Example"
	}
	return schema.Filters[0] + "=value"
}

func newGetCmd(env *Env, schema *content.Schema) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: fmt.Sprintf("Show one %s", strings.ToLower(schema.Singular)),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := env.resource(schema, nil, nil)
			record, err := res.Get(cmd.Context(), model.RecordID(args[0]))
			if err != nil {
				return err
			}
			return writeRecord(cmd.OutOrStdout(), record, env.Config.Preview.SyntaxTheme)
		},
	}
}

// draftFlags are the editing inputs shared by create and edit.
type draftFlags struct {
	set       []string
	setFile   []string
	image     string
	uploadNow bool
}

func (d *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&d.set, "set", nil, "Set a field (field=value, repeatable; tags are comma separated)")
	cmd.Flags().StringArrayVar(&d.setFile, "set-file", nil, "Set a field from a file's contents (field=path, repeatable)")
	cmd.Flags().StringVar(&d.image, "image", "", "Image file to attach")
	cmd.Flags().BoolVar(&d.uploadNow, "upload-now", false, "Upload the image to the image host before saving")
}

func (d *draftFlags) apply(form *admin.Form) error {
	schema := form.Schema()
	known := func(name string) bool {
		if name == model.ImageURLField {
			return schema.HasImage
		}
		_, ok := schema.Field(name)
		return ok
	}

	for _, pair := range d.set {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return fmt.Errorf("invalid --set %q: expected field=value", pair)
		}
		if !known(name) {
			return fmt.Errorf("%s records have no field %q", strings.ToLower(schema.Singular), name)
		}
		form.SetField(name, value)
	}

	for _, pair := range d.setFile {
		name, path, ok := strings.Cut(pair, "=")
		if !ok || name == "" || path == "" {
			return fmt.Errorf("invalid --set-file %q: expected field=path", pair)
		}
		if !known(name) {
			return fmt.Errorf("%s records have no field %q", strings.ToLower(schema.Singular), name)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("error reading %s: %w", path, err)
		}
		form.SetField(name, string(data))
	}
	return nil
}

// stage selects the image, if any, and uploads it right away when asked to.
func (d *draftFlags) stage(ctx context.Context, env *Env, form *admin.Form, t *toaster) (*admin.ImageStager, error) {
	stager := admin.NewImageStager(form, env.maxUploadBytes())
	if d.image == "" {
		if d.uploadNow {
			return nil, errors.New("--upload-now needs --image")
		}
		return stager, nil
	}
	if !form.Schema().HasImage {
		return nil, fmt.Errorf("%s records have no image", strings.ToLower(form.Schema().Singular))
	}

	img, err := stager.SelectPath(d.image)
	if err != nil {
		return nil, err
	}
	t.info("Staged %s (%s, %d bytes)", img.Filename, img.ContentType, len(img.Data))

	if d.uploadNow {
		location, err := stager.UploadNow(ctx, env.uploader())
		if err != nil {
			return nil, err
		}
		t.Notify(admin.Notification{Level: admin.LevelSuccess, Message: "Uploaded " + location})
	}
	return stager, nil
}

// saved reports the outcome of a create or edit.
func saved(cmd *cobra.Command, env *Env, t *toaster, result *admin.MutationResult, err error) error {
	var invalid *admin.ValidationError
	if errors.As(err, &invalid) {
		t.violations(invalid.Violations)
		return fmt.Errorf("draft has %d invalid field(s); nothing was sent", len(invalid.Violations))
	}
	if err != nil {
		return err
	}
	cliLogger.Debug().Str("redirect", result.Redirect).Str("id", string(result.ID)).Msg("Mutation succeeded")
	return writeRecord(cmd.OutOrStdout(), result.Record, env.Config.Preview.SyntaxTheme)
}

func newCreateCmd(env *Env, schema *content.Schema) *cobra.Command {
	var draft draftFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: fmt.Sprintf("Create a %s", strings.ToLower(schema.Singular)),
		Example: fmt.Sprintf(`  folio %s create --set %s
  folio %s create --set-file content=post.md --image cover.png --upload-now`,
			schema.Kind, exampleSet(schema), schema.Kind),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := newToaster(cmd.ErrOrStderr())
			res := env.resource(schema, quietErrors(t), nil)

			form := res.NewForm(nil)
			if err := draft.apply(form); err != nil {
				return err
			}
			stager, err := draft.stage(cmd.Context(), env, form, t)
			if err != nil {
				return err
			}

			result, err := res.Save(cmd.Context(), form, stager)
			return saved(cmd, env, t, result, err)
		},
	}
	draft.register(cmd)
	return cmd
}

func exampleSet(schema *content.Schema) string {
	if schema.TitleField == "" {
		return "name=value"
	}
	return schema.TitleField + `="Hello world"`
}

func newEditCmd(env *Env, schema *content.Schema) *cobra.Command {
	var draft draftFlags
	var replace bool

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: fmt.Sprintf("Edit a %s", strings.ToLower(schema.Singular)),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := newToaster(cmd.ErrOrStderr())
			res := env.resource(schema, quietErrors(t), nil)

			record, err := res.Get(cmd.Context(), model.RecordID(args[0]))
			if err != nil {
				return err
			}

			form := res.NewForm(record)
			if err := draft.apply(form); err != nil {
				return err
			}
			stager, err := draft.stage(cmd.Context(), env, form, t)
			if err != nil {
				return err
			}

			save := res.Save
			if replace {
				save = res.Replace
			}
			result, err := save(cmd.Context(), form, stager)
			return saved(cmd, env, t, result, err)
		},
	}
	draft.register(cmd)
	cmd.Flags().BoolVar(&replace, "replace", false, "Replace the whole record (PUT) instead of updating the given fields")
	return cmd
}

func newDeleteCmd(env *Env, schema *content.Schema) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: fmt.Sprintf("Delete a %s", strings.ToLower(schema.Singular)),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := model.RecordID(args[0])
			t := newToaster(cmd.ErrOrStderr())
			res := env.resource(schema, quietErrors(t), nil)

			record, err := res.Get(ctx, id)
			if err != nil {
				return err
			}
			if err := res.List.Load(ctx); err != nil {
				cliLogger.Warn().Err(err).Msg("Could not load list for reconciliation")
			}

			res.RequestDelete(id)
			confirmed := yes
			if !confirmed {
				confirmed, err = env.confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), deletePrompt(schema, record))
				if err != nil {
					res.CancelDelete()
					return err
				}
			}
			if !confirmed {
				res.CancelDelete()
				t.info("Delete cancelled")
				return nil
			}

			if err := res.ConfirmDelete(ctx); err != nil {
				return err
			}
			if res.List.Loaded() {
				t.info("%d %s left", res.List.Len(), schema.Kind)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking for confirmation")
	return cmd
}

func deletePrompt(schema *content.Schema, record *model.ContentRecord) string {
	name := schema.Title(record.Fields)
	if name == "" {
		name = string(record.ID)
	}
	return fmt.Sprintf("Delete %s %q? This cannot be undone.", strings.ToLower(schema.Singular), name)
}

func newSchemaCmd(schema *content.Schema) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: fmt.Sprintf("Describe the fields of a %s", strings.ToLower(schema.Singular)),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			writeSchema(cmd.OutOrStdout(), schema)
			return nil
		},
	}
}

func writeSchema(w io.Writer, schema *content.Schema) {
	renderer := lipgloss.NewRenderer(w)
	headerStyle := renderer.NewStyle().Foreground(colorAccent).Bold(true).Padding(0, 1)
	cellStyle := renderer.NewStyle().Padding(0, 1)

	rows := make([][]string, 0, len(schema.Fields)+1)
	for _, f := range schema.Fields {
		rows = append(rows, []string{f.Name, f.Type.String(), strings.Join(f.Constraints(), "; ")})
	}
	if schema.HasImage {
		rows = append(rows, []string{model.ImageURLField, "image", "set with --image or --set"})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(renderer.NewStyle().Foreground(colorMuted)).
		Headers("field", "type", "constraints").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.String())
}
