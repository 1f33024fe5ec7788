package main

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"

	"github.com/jacentio/rescue/gateway"
)

var lambdaCmd = &cobra.Command{
	Use:   "lambda",
	Short: "Run as an AWS Lambda function behind an API Gateway HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		// Metrics are not exposed from Lambda; there is nothing to scrape.
		a, err := newApp(cmd.Context(), logger, nil)
		if err != nil {
			return err
		}
		lambda.Start(gateway.NewHandler(a.schema, a.ns, a.logger).HandleRequest)
		return nil
	},
}
