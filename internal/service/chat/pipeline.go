package chat

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/tdcarpool/carpool/backend/internal/analysis/intent"
	"github.com/tdcarpool/carpool/backend/internal/model/role"
)

// Query is one question on its way to the assistant.
type Query struct {
	Text string
	Role role.Role
	Page string
}

// Responder produces the assistant's reply text for a query.
type Responder interface {
	Respond(ctx context.Context, q Query) (string, error)
}

// Pipeline answers queries through a compiled eino chain that resolves the
// question against the rule table and wraps the reply as an assistant message.
type Pipeline struct {
	runnable compose.Runnable[Query, *schema.Message]
}

// NewPipeline compiles the reply chain for resolver.
func NewPipeline(ctx context.Context, resolver *intent.Resolver, logger zerolog.Logger) (*Pipeline, error) {
	resolve := compose.InvokableLambda(func(_ context.Context, q Query) (intent.Resolution, error) {
		res := resolver.Lookup(q.Text, q.Role)
		logger.Debug().
			Str("rule", res.Rule).
			Bool("matched", res.Matched).
			Str("role", q.Role.String()).
			Str("page", q.Page).
			Msg("[assistant] resolved query")
		return res, nil
	})

	render := compose.InvokableLambda(func(_ context.Context, res intent.Resolution) (*schema.Message, error) {
		return schema.AssistantMessage(res.Reply, nil), nil
	})

	chain := compose.NewChain[Query, *schema.Message]()
	chain.AppendLambda(resolve)
	chain.AppendLambda(render)

	runnable, err := chain.Compile(ctx, compose.WithGraphName("assistant_reply"))
	if err != nil {
		return nil, fmt.Errorf("failed to compile assistant reply chain: %w", err)
	}

	return &Pipeline{runnable: runnable}, nil
}

// Respond runs the chain for q.
func (p *Pipeline) Respond(ctx context.Context, q Query) (string, error) {
	msg, err := p.runnable.Invoke(ctx, q)
	if err != nil {
		return "", err
	}
	if msg == nil {
		return "", fmt.Errorf("assistant reply chain returned no message")
	}
	return msg.Content, nil
}
