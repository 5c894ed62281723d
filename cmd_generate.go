package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"wechat_md_publisher/generator"
	"wechat_md_publisher/publisher"
)

var generateFlags struct {
	topic       string
	outline     []string
	tone        string
	audience    string
	words       int
	constraints []string
	comments    []string
	out         string
	publish     bool
	timeout     time.Duration
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Draft an article with the configured LLM",
	Long: `Asks the configured LLM for a Markdown draft on --topic, then applies each
--comment as a revision in order. The final draft is written to --out (or
stdout) and, with --publish, saved to WeChat as a draft.`,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&generateFlags.topic, "topic", "", "article topic (required)")
	f.StringSliceVar(&generateFlags.outline, "outline", nil, "outline points, in order")
	f.StringVar(&generateFlags.tone, "tone", "", "writing tone")
	f.StringVar(&generateFlags.audience, "audience", "", "target readers")
	f.IntVar(&generateFlags.words, "words", 0, "approximate length in characters")
	f.StringSliceVar(&generateFlags.constraints, "constraint", nil, "extra requirements")
	f.StringArrayVar(&generateFlags.comments, "comment", nil, "revision comment, may be repeated")
	f.StringVarP(&generateFlags.out, "out", "o", "", "write the Markdown draft here (default stdout)")
	f.BoolVar(&generateFlags.publish, "publish", false, "publish the final draft")
	f.DurationVar(&generateFlags.timeout, "timeout", 2*time.Minute, "timeout per LLM call")

	_ = generateCmd.MarkFlagRequired("topic")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	agent, err := newAgent(cfg)
	if err != nil {
		return err
	}
	if agent == nil {
		return errors.New("llm config missing; please set llm.provider/model/api_key in config")
	}

	sess := generator.NewSession("cli", generator.Brief{
		Topic:       generateFlags.topic,
		Outline:     generateFlags.outline,
		Tone:        generateFlags.tone,
		Audience:    generateFlags.audience,
		Words:       generateFlags.words,
		Constraints: generateFlags.constraints,
	}, agent)

	draft, err := withTimeout(cmd.Context(), sess.Propose)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Draft: %s\n", draft.Title)
	for i, comment := range generateFlags.comments {
		draft, err = withTimeout(cmd.Context(), func(ctx context.Context) (generator.Draft, error) {
			return sess.Revise(ctx, comment)
		})
		if err != nil {
			return fmt.Errorf("revision %d failed: %w", i+1, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Revision %d: %s\n", i+1, draft.Title)
	}

	if generateFlags.out == "" {
		fmt.Fprintln(cmd.OutOrStdout(), draft.Markdown)
	} else if err := os.WriteFile(generateFlags.out, []byte(draft.Markdown), 0o644); err != nil {
		return fmt.Errorf("failed to write draft: %w", err)
	}

	if !generateFlags.publish {
		return nil
	}
	pub, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	res := pub.Publish(cmd.Context(), publisher.Input{
		Markdown:     draft.Markdown,
		DefaultTitle: draft.Title,
		Digest:       draft.Digest,
		Progress:     func(msg string) { fmt.Fprintln(cmd.ErrOrStderr(), msg) },
	})
	source := generateFlags.out
	if source == "" {
		source = "generate"
	}
	if err := recordResult(cmd.Context(), cfg, res, source, draft.Markdown); err != nil {
		log.Printf("[WARN] failed to record history: %v", err)
	}
	if !res.Success {
		return fmt.Errorf("publish failed: %s", res.Error)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), res.DraftURL)
	return nil
}

func withTimeout(parent context.Context, fn func(context.Context) (generator.Draft, error)) (generator.Draft, error) {
	ctx, cancel := context.WithTimeout(parent, generateFlags.timeout)
	defer cancel()
	return fn(ctx)
}
