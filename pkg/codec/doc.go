/*
Package codec turns operation calls into frames and back.

The default JSONSerializer uses the command to carry the kind of record and the
operation name:

	" " + name   call, payload is a JSON array of arguments
	"&" + name   notify, a call the peer must not answer; same payload as a call
	"$" + name   response, payload is a single JSON value
	"!" + name   fault, payload is a JSON string describing the failure

A literal null stands for an absent or void value.
*/
package codec
