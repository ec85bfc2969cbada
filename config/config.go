// Package config loads runtime configuration from config.yaml, overridable
// by environment variables, following the teacher's viper.BindEnv pattern.
package config

import (
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // GIN_MODE: debug | release | test
}

type MongoConfig struct {
	URI    string `mapstructure:"uri"`
	DBName string `mapstructure:"dbName"`
}

type JWTConfig struct {
	Secret            string `mapstructure:"secret"`
	RefreshSecret     string `mapstructure:"refreshSecret"`
	Expire            string `mapstructure:"expire"`
	RefreshExpire     string `mapstructure:"refreshExpire"`
	BcryptSaltRounds  int    `mapstructure:"bcryptSaltRounds"`
	OTPExpireMinutes  int    `mapstructure:"otpExpireMinutes"`
}

type S3Config struct {
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	AccessKeyID      string `mapstructure:"accessKeyID"`
	SecretAccessKey  string `mapstructure:"secretAccessKey"`
	CloudFrontDomain string `mapstructure:"cloudFrontDomain"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type CORSConfig struct {
	FrontendURL     string   `mapstructure:"frontendURL"`
	AllowedOrigins  []string `mapstructure:"allowedOrigins"`
}

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Mongo  MongoConfig  `mapstructure:"mongo"`
	JWT    JWTConfig    `mapstructure:"jwt"`
	S3     S3Config     `mapstructure:"s3"`
	Log    LogConfig    `mapstructure:"log"`
	CORS   CORSConfig   `mapstructure:"cors"`
}

// LoadConfig reads config.yaml from path (if present) and layers
// environment variables named in §6.3 on top.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	viper.SetDefault("jwt.bcryptSaltRounds", 12)
	viper.SetDefault("jwt.otpExpireMinutes", 10)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("log.level", "info")

	viper.BindEnv("mongo.uri", "MONGO_URI")
	viper.BindEnv("mongo.dbName", "MONGO_DBNAME")
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.mode", "GIN_MODE")
	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("jwt.refreshSecret", "JWT_REFRESH_SECRET")
	viper.BindEnv("jwt.expire", "JWT_EXPIRE")
	viper.BindEnv("jwt.refreshExpire", "JWT_REFRESH_EXPIRE")
	viper.BindEnv("jwt.bcryptSaltRounds", "BCRYPT_SALT_ROUNDS")
	viper.BindEnv("jwt.otpExpireMinutes", "OTP_EXPIRE_MINUTES")
	viper.BindEnv("s3.bucket", "S3_BUCKET")
	viper.BindEnv("s3.region", "S3_REGION")
	viper.BindEnv("s3.accessKeyID", "S3_ACCESS_KEY_ID")
	viper.BindEnv("s3.secretAccessKey", "S3_SECRET_ACCESS_KEY")
	viper.BindEnv("s3.cloudFrontDomain", "S3_CLOUDFRONT_DOMAIN")
	viper.BindEnv("log.level", "LOG_LEVEL")
	viper.BindEnv("log.file", "LOG_FILE")
	viper.BindEnv("cors.frontendURL", "FRONTEND_URL")
	viper.BindEnv("cors.allowedOrigins", "ALLOWED_ORIGINS")

	err = viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = viper.Unmarshal(&config)
	return
}
