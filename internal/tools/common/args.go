package common

// StringArg returns the string value of key in args. The second result is
// false when the key is missing or not a string.
func StringArg(args map[string]interface{}, key string) (string, bool) {
	if args == nil {
		return "", false
	}
	v, ok := args[key].(string)
	return v, ok
}

// RecipientFromArgs returns the "to" argument for audit purposes, or an empty
// string when it is absent.
func RecipientFromArgs(args map[string]interface{}) string {
	to, _ := StringArg(args, "to")
	return to
}

// MessageLengthFromArgs returns the byte length of the "message" argument.
func MessageLengthFromArgs(args map[string]interface{}) int {
	msg, _ := StringArg(args, "message")
	return len(msg)
}
