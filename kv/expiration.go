package kv

import (
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const expirationAttr = "expiration"

// IsExpired checks if an item carries an expiration at or before now.
func IsExpired(item map[string]types.AttributeValue, now time.Time) bool {
	attr, exists := item[expirationAttr]
	if !exists {
		return false // No expiration = lives forever
	}
	n, ok := attr.(*types.AttributeValueMemberN)
	if !ok {
		return false
	}
	exp, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil || exp == 0 {
		return false
	}
	return exp <= now.Unix()
}

// expired reports whether a unix expiration has passed.
func expired(exp int64, now time.Time) bool {
	return exp != 0 && exp <= now.Unix()
}

// liveFilter builds the filter that drops expired items from a Query.
// DynamoDB TTL deletion lags by up to days, so reads filter on their own.
func liveFilter(now time.Time) expression.ConditionBuilder {
	exp := expression.Name(expirationAttr)
	return exp.AttributeNotExists().Or(exp.GreaterThan(expression.Value(now.Unix())))
}
