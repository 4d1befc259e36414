package config

type Auth struct {
	// JWTSecret signs and verifies the HS256 bearer tokens issued by the
	// authentication collaborator. Both sides must share it.
	JWTSecret string `env:"JWT_SECRET,required"`
}
