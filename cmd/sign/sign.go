package sign

import (
	"encoding/json"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github/hwsign/device/internal/antiklepto"
	"github/hwsign/device/internal/config"
	"github/hwsign/device/internal/eth/keypath"
	"github/hwsign/device/internal/eth/params"
	"github/hwsign/device/internal/eth/signing"
	"github/hwsign/device/internal/keystore"
	"github/hwsign/device/internal/util"
	"github/hwsign/device/internal/workflow"
)

// requestFile is the on-disk request format of the simulator
type requestFile struct {
	Coin       int32         `json:"coin"`
	Keypath    string        `json:"keypath"`
	Nonce      hexutil.Bytes `json:"nonce"`
	GasPrice   hexutil.Bytes `json:"gasPrice"`
	GasLimit   hexutil.Bytes `json:"gasLimit"`
	Recipient  hexutil.Bytes `json:"recipient"`
	Value      hexutil.Bytes `json:"value"`
	Data       hexutil.Bytes `json:"data"`
	Antiklepto bool          `json:"antiklepto"`
}

// New returns the sign subcommand, running one request through the full
// pipeline with the software keystore and terminal confirmations
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "sign <request.json>",
		Short: "Signs a transaction request with terminal confirmations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}
}

func run(cmd *cobra.Command, requestPath string) error {
	cfg := config.DefaultServiceConfigFromEnv()
	setupLogger(cfg.Logger)

	if cfg.Keystore.Mnemonic == "" {
		return errors.New("HWSIGN_KEYSTORE_MNEMONIC is required")
	}
	if !workflow.StdinIsInteractive() {
		return errors.New("sign requires an interactive terminal for confirmations")
	}

	raw, err := os.ReadFile(requestPath)
	if err != nil {
		return errors.Wrap(err, "failed to read request file")
	}
	var file requestFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return errors.Wrap(err, "failed to decode request file")
	}

	path, err := keypath.Parse(file.Keypath)
	if err != nil {
		return err
	}

	ks, err := keystore.NewSoftwareFromMnemonic(cfg.Keystore.Mnemonic, cfg.Keystore.Passphrase)
	if err != nil {
		return errors.Wrap(err, "failed to initialize software keystore")
	}

	host, err := antiklepto.NewHost()
	if err != nil {
		return err
	}

	service, err := signing.NewService(
		params.NewResolver(),
		workflow.NewTerminalConfirmer(cmd.InOrStdin(), cmd.OutOrStdout()),
		ks,
		host,
	)
	if err != nil {
		return err
	}

	req := &signing.Request{
		Coin:      params.Coin(file.Coin),
		Keypath:   path,
		Nonce:     file.Nonce,
		GasPrice:  file.GasPrice,
		GasLimit:  file.GasLimit,
		Recipient: file.Recipient,
		Value:     file.Value,
		Data:      file.Data,
	}
	if file.Antiklepto {
		req.HostNonceCommitment = host.Commitment()
	}

	resp, err := service.SignTransaction(util.WithLogger(cmd.Context(), log.Logger), req)
	if err != nil {
		return err
	}

	if file.Antiklepto {
		if !host.VerifySignature(resp.Signature) {
			return errors.New("signature does not match the signer nonce commitment")
		}
		log.Info().Msg("Anti-klepto nonce commitment verified")
	}

	cmd.Printf("signature: %s\n", hexutil.Encode(resp.Signature))
	return nil
}

func setupLogger(cfg config.Logger) {
	zerolog.SetGlobalLevel(cfg.Level)
	if cfg.PrettyPrintConsole {
		log.Logger = log.Output(zerolog.NewConsoleWriter())
	}
}
