/*
Copyright (C) 2026  WanXCodec Contributors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

//go:build s3

package coss

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3StripeStore backs a cache with one object per stripe in a bucket,
// keyed by stripe number. It trades the single-file store's cheap
// append-in-place writes for the ability to put a cache behind shared
// object storage rather than a single host's disk.
type S3StripeStore struct {
	client *s3.Client
	bucket string
	prefix string
}

// OpenS3StripeStore loads the default AWS config (environment,
// credentials file, or instance role, in that order) and returns a
// store that reads and writes stripe objects under prefix in bucket.
func OpenS3StripeStore(ctx context.Context, bucket, prefix string) (*S3StripeStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("coss: loading aws config: %w", err)
	}
	return &S3StripeStore{client: s3.NewFromConfig(cfg), bucket: bucket, prefix: prefix}, nil
}

func (s *S3StripeStore) key(number uint64) string {
	return fmt.Sprintf("%sstripe-%020d.bin", s.prefix, number)
}

func (s *S3StripeStore) ReadStripe(number uint64) ([]byte, bool, error) {
	out, err := s.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(number)),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *S3StripeStore) WriteStripe(number uint64, data []byte) error {
	_, err := s.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(number)),
		Body:   bytes.NewReader(data),
	})
	return err
}

func (s *S3StripeStore) Close() error { return nil }
