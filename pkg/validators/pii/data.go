package pii

import "regexp"

type Entity string

const (
	CreditCard  Entity = "credit_card"
	Email       Entity = "email"
	PhoneNumber Entity = "phone_number"
	SSN         Entity = "ssn"
	IPAddress   Entity = "ip_address"
	Password    Entity = "password"
	APIKey      Entity = "api_key"
	IBAN        Entity = "iban"
	UUID        Entity = "uuid"
	JWTToken    Entity = "jwt_token"
)

var entityPatterns = map[Entity]*regexp.Regexp{
	CreditCard:  regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`),
	Email:       regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
	PhoneNumber: regexp.MustCompile(`\b(\+?\d{1,4}[\s-]?)?(\(?\d{2,4}\)?[\s-]?)?\d{2,4}[\s-]?\d{2,4}[\s-]?\d{2,4}\b`),
	SSN:         regexp.MustCompile(`\b\d{3}[-\s]?\d{2}[-\s]?\d{4}\b`),
	IPAddress:   regexp.MustCompile(`\b((25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`),
	Password:    regexp.MustCompile(`(?i)password[\s]*[=:]\s*\S+`),
	APIKey:      regexp.MustCompile(`(?i)(api[_-]?key|access[_-]?key)[\s]*[=:]\s*\S+`),
	IBAN:        regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{4,30}\b`),
	UUID:        regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`),
	JWTToken:    regexp.MustCompile(`\beyJ[a-zA-Z0-9-_]+\.eyJ[a-zA-Z0-9-_]+\.[a-zA-Z0-9-_]+\b`),
}

// entityOrder fixes masking order: broad numeric patterns last so the
// specific ones claim their spans first.
var entityOrder = []Entity{
	Email,
	JWTToken,
	UUID,
	IBAN,
	IPAddress,
	SSN,
	CreditCard,
	Password,
	APIKey,
	PhoneNumber,
}

var entityMasks = map[Entity]string{
	CreditCard:  "[MASKED_CC]",
	Email:       "[MASKED_EMAIL]",
	PhoneNumber: "[MASKED_PHONE]",
	SSN:         "[MASKED_SSN]",
	IPAddress:   "[MASKED_IP]",
	Password:    "[MASKED_PASSWORD]",
	APIKey:      "[MASKED_API_KEY]",
	IBAN:        "[MASKED_IBAN]",
	UUID:        "[MASKED_UUID]",
	JWTToken:    "[MASKED_JWT]",
}
