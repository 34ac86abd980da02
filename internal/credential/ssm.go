package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/rs/zerolog/log"
)

// SSMAPI is the subset of the SSM client the store uses.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
	DeleteParameter(ctx context.Context, params *ssm.DeleteParameterInput, optFns ...func(*ssm.Options)) (*ssm.DeleteParameterOutput, error)
}

// SSMStore keeps credentials as SecureString parameters under a prefix.
type SSMStore struct {
	client SSMAPI
	prefix string
}

// NewSSMStore stores each credential at <prefix>/<name>.
func NewSSMStore(client SSMAPI, prefix string) *SSMStore {
	return &SSMStore{client: client, prefix: strings.TrimRight(prefix, "/")}
}

func (s *SSMStore) param(name string) string {
	return s.prefix + "/" + name
}

func (s *SSMStore) Get(ctx context.Context, name string) (string, error) {
	param := s.param(name)
	start := time.Now()
	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &param,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("get parameter %s: %w", param, err)
	}
	log.Debug().Str("param", param).Dur("elapsed", time.Since(start)).Msg("Credential loaded from SSM")
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", nil
	}
	return *out.Parameter.Value, nil
}

func (s *SSMStore) Put(ctx context.Context, name, value string) error {
	param := s.param(name)
	_, err := s.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      &param,
		Value:     &value,
		Type:      types.ParameterTypeSecureString,
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("put parameter %s: %w", param, err)
	}
	return nil
}

func (s *SSMStore) Delete(ctx context.Context, name string) error {
	param := s.param(name)
	_, err := s.client.DeleteParameter(ctx, &ssm.DeleteParameterInput{Name: &param})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("delete parameter %s: %w", param, err)
	}
	return nil
}
