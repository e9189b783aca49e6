package publishers

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// defaultMessageGroupID orders deliveries on FIFO queues and topics when no
// group is configured.
const defaultMessageGroupID = "spexpress-exchanges"

// loadAWSConfig resolves the AWS config for a region, pinning static credentials when given.
func loadAWSConfig(ctx context.Context, region string, creds *AWSCredentials) (aws.Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(region)}
	if creds != nil && creds.AccessKeyID != "" && creds.SecretAccessKey != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken),
		))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// fifoGroup returns the message group for FIFO destinations and "" otherwise.
func fifoGroup(destination, configured string) string {
	if !strings.HasSuffix(destination, ".fifo") {
		return ""
	}
	if configured != "" {
		return configured
	}
	return defaultMessageGroupID
}
